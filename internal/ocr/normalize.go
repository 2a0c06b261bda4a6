package ocr

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type KeyValue struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

type Table struct {
	ID   string `json:"table_id"`
	Rows int    `json:"rows"`
}

// ExtractedRecord is the document-agnostic shape every extractor consumes.
// KeyValues keeps first-seen key order; extractors depend on it.
type ExtractedRecord struct {
	DocumentType      string         `json:"document_type,omitempty"`
	JobID             string         `json:"ocr_job_id,omitempty"`
	Lines             []Line         `json:"extracted_text"`
	KeyValues         []KeyValue     `json:"key_value_pairs"`
	Tables            []Table        `json:"tables"`
	AverageConfidence float64        `json:"average_confidence"`
	Fields            map[string]any `json:"document_specific_fields,omitempty"`
}

// Value returns the value recorded for key and whether it exists.
func (r *ExtractedRecord) Value(key string) (KeyValue, bool) {
	for _, kv := range r.KeyValues {
		if kv.Key == key {
			return kv, true
		}
	}
	return KeyValue{}, false
}

// Normalize builds an ExtractedRecord from raw blocks. It is a pure function
// of its input.
func Normalize(blocks []Block) ExtractedRecord {
	byID := make(map[string]Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}

	rec := ExtractedRecord{
		Lines:     []Line{},
		KeyValues: []KeyValue{},
		Tables:    []Table{},
	}
	keyIndex := map[string]int{}
	sum := decimal.Zero

	for _, b := range blocks {
		switch b.Type {
		case BlockLine:
			conf := clampConfidence(b.Confidence)
			rec.Lines = append(rec.Lines, Line{Text: b.Text, Confidence: conf})
			sum = sum.Add(decimal.NewFromFloat(conf))

		case BlockKeyValueSet:
			if !b.isKey() {
				continue
			}
			val, ok := resolveValue(b, byID)
			if !ok {
				continue
			}
			key := normalizeKey(blockText(b, byID))
			if key == "" {
				key = "Unknown"
			}
			kv := KeyValue{Key: key, Value: blockText(val, byID), Confidence: clampConfidence(val.Confidence)}
			if i, seen := keyIndex[key]; seen {
				rec.KeyValues[i] = kv
				continue
			}
			keyIndex[key] = len(rec.KeyValues)
			rec.KeyValues = append(rec.KeyValues, kv)

		case BlockTable:
			rows := 0
			for _, rel := range b.Relationships {
				if rel.Type == RelChild {
					rows++
				}
			}
			rec.Tables = append(rec.Tables, Table{ID: b.ID, Rows: rows})
		}
	}

	if n := len(rec.Lines); n > 0 {
		avg := sum.Div(decimal.NewFromInt(int64(n))).Round(2)
		rec.AverageConfidence = avg.InexactFloat64()
	}
	return rec
}

func resolveValue(key Block, byID map[string]Block) (Block, bool) {
	for _, rel := range key.Relationships {
		if rel.Type != RelValue || len(rel.IDs) == 0 {
			continue
		}
		if v, ok := byID[rel.IDs[0]]; ok {
			return v, true
		}
	}
	return Block{}, false
}

// blockText prefers the block's own text and falls back to its WORD children.
func blockText(b Block, byID map[string]Block) string {
	if b.Text != "" {
		return b.Text
	}
	var words []string
	for _, rel := range b.Relationships {
		if rel.Type != RelChild {
			continue
		}
		for _, id := range rel.IDs {
			if w, ok := byID[id]; ok && w.Type == BlockWord && w.Text != "" {
				words = append(words, w.Text)
			}
		}
	}
	return strings.Join(words, " ")
}

func normalizeKey(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(strings.TrimRight(s, ":"))
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

package ocr

import (
	"bytes"
	"encoding/json"
	"testing"
)

func sampleBlocks() []Block {
	return []Block{
		{ID: "l1", Type: BlockLine, Text: "Request for Taxpayer Identification", Confidence: 99},
		{ID: "l2", Type: BlockLine, Text: "Signature of U.S. person 01/15/2024", Confidence: 91},
		{ID: "k1", Type: BlockKeyValueSet, EntityTypes: []string{EntityKey}, Text: "Business  Name:", Confidence: 95,
			Relationships: []Relationship{{Type: RelValue, IDs: []string{"v1"}}}},
		{ID: "v1", Type: BlockKeyValueSet, EntityTypes: []string{EntityValue}, Text: "Acme Corp", Confidence: 88},
		{ID: "k2", Type: BlockKeyValueSet, EntityTypes: []string{EntityKey}, Confidence: 90,
			Relationships: []Relationship{
				{Type: RelChild, IDs: []string{"w1", "w2"}},
				{Type: RelValue, IDs: []string{"v2"}},
			}},
		{ID: "w1", Type: BlockWord, Text: "Tax", Confidence: 90},
		{ID: "w2", Type: BlockWord, Text: "ID", Confidence: 90},
		{ID: "v2", Type: BlockKeyValueSet, EntityTypes: []string{EntityValue}, Text: "12-3456789", Confidence: 97},
		{ID: "k3", Type: BlockKeyValueSet, EntityTypes: []string{EntityKey}, Text: "Orphan", Confidence: 80,
			Relationships: []Relationship{{Type: RelValue, IDs: []string{"missing"}}}},
		{ID: "t1", Type: BlockTable, Confidence: 70,
			Relationships: []Relationship{{Type: RelChild, IDs: []string{"c1", "c2", "c3"}}}},
	}
}

func TestNormalizeBuildsRecord(t *testing.T) {
	rec := Normalize(sampleBlocks())

	if len(rec.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(rec.Lines))
	}
	if rec.AverageConfidence != 95 {
		t.Errorf("average confidence = %v, want 95", rec.AverageConfidence)
	}
	if len(rec.KeyValues) != 2 {
		t.Fatalf("key values = %+v, want 2 (orphan key dropped)", rec.KeyValues)
	}
	if rec.KeyValues[0].Key != "Business Name" || rec.KeyValues[0].Value != "Acme Corp" {
		t.Errorf("first kv = %+v", rec.KeyValues[0])
	}
	if kv, ok := rec.Value("Tax ID"); !ok || kv.Value != "12-3456789" || kv.Confidence != 97 {
		t.Errorf("word-assembled key not resolved: %+v %v", kv, ok)
	}
	if len(rec.Tables) != 1 || rec.Tables[0].Rows != 1 {
		t.Errorf("tables = %+v", rec.Tables)
	}
}

func TestNormalizeTableRowsCountChildEdges(t *testing.T) {
	cells := []string{"c1", "c2", "c3", "c4", "c5", "c6"}
	cases := []struct {
		name string
		rels []Relationship
		want int
	}{
		{"one edge many cells", []Relationship{{Type: RelChild, IDs: cells}}, 1},
		{"edge per row", []Relationship{
			{Type: RelChild, IDs: cells[:2]},
			{Type: RelChild, IDs: cells[2:4]},
			{Type: RelChild, IDs: cells[4:]},
		}, 3},
		{"non child edges ignored", []Relationship{{Type: RelValue, IDs: cells}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Normalize([]Block{{ID: "t1", Type: BlockTable, Relationships: tc.rels}})
			if len(rec.Tables) != 1 || rec.Tables[0].Rows != tc.want {
				t.Fatalf("tables = %+v, want rows %d", rec.Tables, tc.want)
			}
		})
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	rec := Normalize(nil)
	if rec.AverageConfidence != 0 {
		t.Fatalf("average confidence = %v, want 0", rec.AverageConfidence)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`"extracted_text":[]`)) {
		t.Errorf("empty lines should encode as []: %s", b)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	blocks := sampleBlocks()
	a, _ := json.Marshal(Normalize(blocks))
	b, _ := json.Marshal(Normalize(blocks))
	if !bytes.Equal(a, b) {
		t.Fatalf("records differ:\n%s\n%s", a, b)
	}
}

func TestNormalizeDuplicateKeyKeepsPosition(t *testing.T) {
	blocks := []Block{
		{ID: "k1", Type: BlockKeyValueSet, EntityTypes: []string{EntityKey}, Text: "Name",
			Relationships: []Relationship{{Type: RelValue, IDs: []string{"v1"}}}},
		{ID: "v1", Type: BlockKeyValueSet, EntityTypes: []string{EntityValue}, Text: "first"},
		{ID: "k2", Type: BlockKeyValueSet, EntityTypes: []string{EntityKey}, Text: "Other",
			Relationships: []Relationship{{Type: RelValue, IDs: []string{"v2"}}}},
		{ID: "v2", Type: BlockKeyValueSet, EntityTypes: []string{EntityValue}, Text: "x"},
		{ID: "k3", Type: BlockKeyValueSet, EntityTypes: []string{EntityKey}, Text: "Name",
			Relationships: []Relationship{{Type: RelValue, IDs: []string{"v3"}}}},
		{ID: "v3", Type: BlockKeyValueSet, EntityTypes: []string{EntityValue}, Text: "second"},
	}
	rec := Normalize(blocks)
	if len(rec.KeyValues) != 2 || rec.KeyValues[0].Value != "second" {
		t.Fatalf("key values = %+v", rec.KeyValues)
	}
}

func TestNormalizeClampsConfidence(t *testing.T) {
	rec := Normalize([]Block{
		{ID: "a", Type: BlockLine, Text: "x", Confidence: 140},
		{ID: "b", Type: BlockLine, Text: "y", Confidence: -5},
	})
	if rec.Lines[0].Confidence != 100 || rec.Lines[1].Confidence != 0 {
		t.Fatalf("lines = %+v", rec.Lines)
	}
	if rec.AverageConfidence != 50 {
		t.Fatalf("average = %v", rec.AverageConfidence)
	}
}

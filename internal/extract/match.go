package extract

import (
	"regexp"
	"strings"

	"onboardhub/internal/ocr"
)

const datePattern = `\d{1,2}/\d{1,2}/\d{2,4}|\d{1,2}-\d{1,2}-\d{2,4}`

var dateRe = regexp.MustCompile(datePattern)

// valueLike returns the value of the first key containing a candidate label.
// Candidates are tried in order; within a candidate, keys are tried in record
// order. Returns nil when nothing matches.
func valueLike(rec *ocr.ExtractedRecord, labels ...string) any {
	for _, label := range labels {
		l := strings.ToLower(label)
		for _, kv := range rec.KeyValues {
			if strings.Contains(strings.ToLower(kv.Key), l) {
				return kv.Value
			}
		}
	}
	return nil
}

// firstDate returns the first date found in any line, scanning in order.
func firstDate(rec *ocr.ExtractedRecord) any {
	for _, line := range rec.Lines {
		if m := dateRe.FindString(line.Text); m != "" {
			return m
		}
	}
	return nil
}

// datePrefixRe holds one compiled pattern per label that dateAfter is called
// with. Extractors may only use prefixes listed here.
var datePrefixRe = compileDatePrefixes("effective", "expir", "test", "from", "to")

func compileDatePrefixes(prefixes ...string) map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(prefixes))
	for _, p := range prefixes {
		m[p] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p) + `[^0-9]*(` + datePattern + `)`)
	}
	return m
}

// dateAfter finds the first date following prefix (case-insensitive) in the
// joined line text.
func dateAfter(rec *ocr.ExtractedRecord, prefix string) any {
	re, ok := datePrefixRe[prefix]
	if !ok {
		panic("extract: date prefix not registered: " + prefix)
	}
	m := re.FindStringSubmatch(fullText(rec))
	if m == nil {
		return nil
	}
	return m[1]
}

func containsAny(rec *ocr.ExtractedRecord, keywords ...string) bool {
	text := strings.ToLower(fullText(rec))
	for _, k := range keywords {
		if strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func fullText(rec *ocr.ExtractedRecord) string {
	parts := make([]string, len(rec.Lines))
	for i, l := range rec.Lines {
		parts[i] = l.Text
	}
	return strings.Join(parts, " ")
}

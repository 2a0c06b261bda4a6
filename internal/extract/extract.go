// Package extract derives document-type-specific fields from a normalized
// OCR record.
package extract

import (
	"onboardhub/internal/domain"
	"onboardhub/internal/ocr"
)

// FieldMap maps a logical field name to its extracted value. Missing fields
// are present with a nil value.
type FieldMap map[string]any

// Extractor derives a FieldMap from a normalized record.
type Extractor interface {
	Extract(rec *ocr.ExtractedRecord) FieldMap
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(rec *ocr.ExtractedRecord) FieldMap

func (f ExtractorFunc) Extract(rec *ocr.ExtractedRecord) FieldMap { return f(rec) }

var registry = map[domain.DocumentType]Extractor{
	domain.DocTaxForm:        ExtractorFunc(taxForm),
	domain.DocInsurance:      ExtractorFunc(insurance),
	domain.DocDiversityCert:  ExtractorFunc(diversityCert),
	domain.DocContinuityPlan: ExtractorFunc(continuityPlan),
	domain.DocAuditReport:    ExtractorFunc(auditReport),
	domain.DocStandardsCert:  ExtractorFunc(standardsCert),
}

// Fallback is used for every type without a dedicated extractor.
var Fallback Extractor = ExtractorFunc(generic)

// For returns the extractor registered for t, or Fallback.
func For(t domain.DocumentType) Extractor {
	if e, ok := registry[t]; ok {
		return e
	}
	return Fallback
}

// Extract runs the extractor for t. It never fails; a nil record yields the
// extractor's empty field set.
func Extract(rec *ocr.ExtractedRecord, t domain.DocumentType) FieldMap {
	if rec == nil {
		rec = &ocr.ExtractedRecord{}
	}
	return For(t).Extract(rec)
}

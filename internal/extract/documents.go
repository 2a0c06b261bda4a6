package extract

import (
	"strings"

	"onboardhub/internal/ocr"
)

func taxForm(rec *ocr.ExtractedRecord) FieldMap {
	return FieldMap{
		"tax_id":         valueLike(rec, "TIN", "Tax ID", "EIN", "SSN"),
		"entity_type":    valueLike(rec, "Entity Type", "Business Type"),
		"business_name":  valueLike(rec, "Business Name", "Name"),
		"address":        valueLike(rec, "Address", "Street Address"),
		"city_state_zip": valueLike(rec, "City", "State", "ZIP", "Postal Code"),
		"signed":         containsAny(rec, "signature", "signed", "authorized", "approved", "accepted"),
		"date_signed":    firstDate(rec),
	}
}

// coverage keywords in reporting order
var coverageKeywords = []struct {
	name     string
	keywords []string
}{
	{"general_liability", []string{"general liability", "gl coverage"}},
	{"workers_compensation", []string{"workers comp", "workers' compensation", "workers’ compensation"}},
	{"professional_liability", []string{"professional liability", "errors & omissions", "e&o"}},
	{"cyber_liability", []string{"cyber liability", "cyber insurance"}},
	{"umbrella", []string{"umbrella", "excess liability"}},
}

func insurance(rec *ocr.ExtractedRecord) FieldMap {
	coverage := make(map[string]bool, len(coverageKeywords))
	for _, c := range coverageKeywords {
		coverage[c.name] = containsAny(rec, c.keywords...)
	}
	limits := map[string]string{}
	for _, kv := range rec.KeyValues {
		k := strings.ToLower(kv.Key)
		if strings.Contains(k, "limit") || strings.Contains(k, "coverage") {
			limits[kv.Key] = kv.Value
		}
	}
	return FieldMap{
		"policy_holder":      valueLike(rec, "Insured", "Policy Holder", "Company Name"),
		"policy_number":      valueLike(rec, "Policy Number", "Policy #"),
		"insurer":            valueLike(rec, "Insurance Company", "Insurer", "Carrier"),
		"coverage_types":     coverage,
		"coverage_limits":    limits,
		"effective_date":     dateAfter(rec, "effective"),
		"expiration_date":    dateAfter(rec, "expir"),
		"certificate_holder": valueLike(rec, "Certificate Holder", "Additional Insured"),
	}
}

func diversityCert(rec *ocr.ExtractedRecord) FieldMap {
	return FieldMap{
		"certification_type": valueLike(rec, "Certification Type", "MBE", "WBE", "DBE"),
		"certifying_body":    valueLike(rec, "Certified By", "Issuer"),
		"certificate_number": valueLike(rec, "Certification Number", "Cert #"),
		"issue_date":         firstDate(rec),
		"expiration_date":    dateAfter(rec, "expir"),
		"scope":              valueLike(rec, "Scope", "Services"),
	}
}

func continuityPlan(rec *ocr.ExtractedRecord) FieldMap {
	return FieldMap{
		"recovery_time_objective":  valueLike(rec, "RTO", "Recovery Time"),
		"recovery_point_objective": valueLike(rec, "RPO", "Recovery Point"),
		"backup_location":          valueLike(rec, "Backup", "Backup Location"),
		"disaster_recovery":        containsAny(rec, "disaster recovery", "contingency plan"),
		"last_tested":              dateAfter(rec, "test"),
	}
}

func auditReport(rec *ocr.ExtractedRecord) FieldMap {
	return FieldMap{
		"report_type":     valueLike(rec, "Type I", "Type II"),
		"auditor":         valueLike(rec, "Auditor", "Service Auditor"),
		"period_start":    dateAfter(rec, "from"),
		"period_end":      dateAfter(rec, "to"),
		"has_opinion":     containsAny(rec, "opinion", "complied"),
		"controls_tested": valueLike(rec, "Controls", "Testing"),
	}
}

func standardsCert(rec *ocr.ExtractedRecord) FieldMap {
	return FieldMap{
		"standard":           valueLike(rec, "ISO", "Standard"),
		"issuing_body":       valueLike(rec, "Issued By", "Accredited By"),
		"certificate_number": valueLike(rec, "Certification Number", "Number"),
		"issue_date":         firstDate(rec),
		"expiration_date":    dateAfter(rec, "expir"),
		"scope":              valueLike(rec, "Scope", "Services Covered"),
	}
}

func generic(rec *ocr.ExtractedRecord) FieldMap {
	return FieldMap{
		"line_count":      len(rec.Lines),
		"table_count":     len(rec.Tables),
		"key_value_count": len(rec.KeyValues),
	}
}

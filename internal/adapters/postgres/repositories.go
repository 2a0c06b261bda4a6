package postgres

import (
	"context"
	"time"

	"onboardhub/internal/domain"
)

// VendorRepository

func (r *repos) CreateVendor(ctx context.Context, v domain.Vendor) error {
	_, err := r.q.Exec(ctx, `
        INSERT INTO vendors (id, company_name, ein, address, contact_email, contact_phone, email_domain,
                             status, onboarding_progress, ky3p_assessment_id, slp_supplier_id, ariba_account_number,
                             created_at, updated_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14)
    `, v.ID, v.CompanyName, v.TaxID, v.Address, v.ContactEmail, v.ContactPhone, v.EmailDomain,
		string(v.Status), v.OnboardingProgress, v.Integrations.KY3PAssessmentID, v.Integrations.SLPSupplierID,
		v.Integrations.AribaAccountNumber, v.CreatedAt, v.UpdatedAt)
	return mapErr(err)
}

func (r *repos) GetVendor(ctx context.Context, id string) (domain.Vendor, error) {
	var v domain.Vendor
	var status string
	err := r.q.QueryRow(ctx, `
        SELECT id::text, company_name, COALESCE(ein, ''), COALESCE(address, ''), contact_email,
               COALESCE(contact_phone, ''), COALESCE(email_domain, ''), status, onboarding_progress,
               COALESCE(ky3p_assessment_id, ''), COALESCE(slp_supplier_id, ''), COALESCE(ariba_account_number, ''),
               created_at, updated_at
        FROM vendors WHERE id = $1
    `, id).Scan(&v.ID, &v.CompanyName, &v.TaxID, &v.Address, &v.ContactEmail, &v.ContactPhone, &v.EmailDomain,
		&status, &v.OnboardingProgress, &v.Integrations.KY3PAssessmentID, &v.Integrations.SLPSupplierID,
		&v.Integrations.AribaAccountNumber, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return domain.Vendor{}, mapErr(err)
	}
	v.Status = domain.VendorStatus(status)
	return v, nil
}

func (r *repos) UpdateVendorStatus(ctx context.Context, id string, status domain.VendorStatus, progress int) error {
	return affected(r.q.Exec(ctx, `
        UPDATE vendors SET status = $2, onboarding_progress = $3, updated_at = $4 WHERE id = $1
    `, id, string(status), progress, time.Now().UTC()))
}

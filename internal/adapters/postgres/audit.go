package postgres

import (
	"context"

	"onboardhub/internal/domain"
)

// AuditRepository

func (r *repos) AppendAudit(ctx context.Context, e domain.AuditLogEntry) error {
	_, err := r.q.Exec(ctx, `
        INSERT INTO audit_logs (id, vendor_id, action, actor, metadata, success, error_message, timestamp)
        VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
    `, e.ID, e.VendorID, e.Action, e.Actor, e.Metadata, e.Success, e.ErrorMessage, e.Timestamp)
	return mapErr(err)
}

func (r *repos) ListAudit(ctx context.Context, vendorID string) ([]domain.AuditLogEntry, error) {
	rows, err := r.q.Query(ctx, `
        SELECT id::text, vendor_id::text, action, COALESCE(actor, ''), metadata, success,
               COALESCE(error_message, ''), timestamp
        FROM audit_logs
        WHERE vendor_id = $1
        ORDER BY timestamp, id
    `, vendorID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := []domain.AuditLogEntry{}
	for rows.Next() {
		var e domain.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.VendorID, &e.Action, &e.Actor, &e.Metadata, &e.Success,
			&e.ErrorMessage, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

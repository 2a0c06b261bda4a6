package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"onboardhub/internal/domain"
)

const documentColumns = `
    id::text, vendor_id::text, document_type, status, s3_bucket, s3_key, extracted_data,
    COALESCE(file_size_bytes, 0), COALESCE(mime_type, ''), COALESCE(sha256, ''), uploaded_at, processed_at`

func scanDocument(row pgx.Row) (domain.Document, error) {
	var d domain.Document
	var docType, status string
	var data []byte
	err := row.Scan(&d.ID, &d.VendorID, &docType, &status, &d.Storage.Bucket, &d.Storage.Key, &data,
		&d.SizeBytes, &d.MIMEType, &d.SHA256, &d.UploadedAt, &d.ProcessedAt)
	if err != nil {
		return domain.Document{}, err
	}
	d.Type = domain.DocumentType(docType)
	d.Status = domain.DocumentStatus(status)
	if data != nil {
		d.ExtractedData = json.RawMessage(data)
	}
	return d, nil
}

func (r *repos) CreateDocument(ctx context.Context, d domain.Document) error {
	_, err := r.q.Exec(ctx, `
        INSERT INTO documents (id, vendor_id, document_type, s3_bucket, s3_key, status,
                               file_size_bytes, mime_type, sha256, uploaded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10)
    `, d.ID, d.VendorID, string(d.Type), d.Storage.Bucket, d.Storage.Key, string(d.Status),
		d.SizeBytes, d.MIMEType, d.SHA256, d.UploadedAt)
	return mapErr(err)
}

func (r *repos) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	d, err := scanDocument(r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	return d, mapErr(err)
}

func (r *repos) ListDocumentsByVendor(ctx context.Context, vendorID string) ([]domain.Document, error) {
	rows, err := r.q.Query(ctx, `
        SELECT `+documentColumns+`
        FROM documents WHERE vendor_id = $1
        ORDER BY uploaded_at DESC
    `, vendorID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()
	out := []domain.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repos) UpdateDocument(ctx context.Context, d domain.Document) error {
	var data any
	if len(d.ExtractedData) > 0 {
		data = []byte(d.ExtractedData)
	}
	return affected(r.q.Exec(ctx, `
        UPDATE documents SET status = $2, extracted_data = $3, processed_at = $4 WHERE id = $1
    `, d.ID, string(d.Status), data, d.ProcessedAt))
}

func (r *repos) EnqueueDocumentJob(ctx context.Context, documentID string) (string, error) {
	var jobID string
	err := r.q.QueryRow(ctx, `
        INSERT INTO document_jobs (document_id, queued_at) VALUES ($1, $2) RETURNING id::text
    `, documentID, time.Now().UTC()).Scan(&jobID)
	return jobID, mapErr(err)
}

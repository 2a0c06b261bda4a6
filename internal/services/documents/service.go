package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"onboardhub/internal/domain"
	"onboardhub/internal/extract"
	"onboardhub/internal/ocr"
	"onboardhub/internal/ports"
)

// ErrOCRFailed is returned by Process when the OCR job did not succeed. The
// failure record has already been stored on the document.
var ErrOCRFailed = errors.New("ocr processing failed")

const DefaultLockTTL = 2 * time.Minute

var processingPlaceholder = json.RawMessage(`{"status":"processing"}`)

// OCRRunner submits a document and waits for its analysis.
type OCRRunner interface {
	Run(ctx context.Context, loc ocr.Location) (ocr.Result, error)
}

type Service struct {
	store   ports.Store
	ocr     OCRRunner
	objects ports.ObjectStore
	locker  ports.Locker
	lockTTL time.Duration
	log     logrus.FieldLogger
	now     func() time.Time
}

type Option func(*Service)

// WithObjectStore enables size, MIME type and checksum capture at intake.
func WithObjectStore(o ports.ObjectStore) Option { return func(s *Service) { s.objects = o } }

// WithLocker serializes Process calls for the same document.
func WithLocker(l ports.Locker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(store ports.Store, runner OCRRunner, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{store: store, ocr: runner, lockTTL: DefaultLockTTL, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ParseKey splits vendors/{vendor_id}/{document_type}/{document_id}/{filename}.
func ParseKey(key string) (vendorID, docType, documentID string, err error) {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	if len(parts) < 5 || parts[0] != "vendors" || parts[1] == "" || parts[2] == "" || parts[3] == "" || parts[4] == "" {
		return "", "", "", domain.Invalid("key", "expected vendors/{vendor_id}/{document_type}/{document_id}/{filename}")
	}
	return parts[1], parts[2], parts[3], nil
}

// fillFromKey sets the ids missing from n using its storage key. An id that
// was given explicitly must agree with the key.
func fillFromKey(n *domain.UploadNotification) error {
	v, t, d, err := ParseKey(n.Key)
	if err != nil {
		return err
	}
	for _, f := range []struct {
		name    string
		dst     *string
		fromKey string
	}{
		{"vendor_id", &n.VendorID, v},
		{"document_type", &n.DocumentType, t},
		{"document_id", &n.DocumentID, d},
	} {
		switch *f.dst {
		case "":
			*f.dst = f.fromKey
		case f.fromKey:
		default:
			return domain.Invalid(f.name, fmt.Sprintf("%q does not match key (%q)", *f.dst, f.fromKey))
		}
	}
	return nil
}

var errSkip = errors.New("document already recorded")

// Intake records a newly uploaded document and queues it for processing.
// A notification for a known document id is a no-op.
func (s *Service) Intake(ctx context.Context, n domain.UploadNotification) (domain.IntakeResult, error) {
	if err := domain.Validate(n); err != nil {
		return domain.IntakeResult{}, err
	}
	if n.VendorID == "" || n.DocumentID == "" || n.DocumentType == "" {
		if err := fillFromKey(&n); err != nil {
			return domain.IntakeResult{}, err
		}
	}
	docType, err := domain.ParseDocumentType(n.DocumentType)
	if err != nil {
		return domain.IntakeResult{}, err
	}
	log := s.log.WithFields(logrus.Fields{"vendor_id": n.VendorID, "document_id": n.DocumentID})

	doc := domain.Document{
		ID:         n.DocumentID,
		VendorID:   n.VendorID,
		Type:       docType,
		Status:     domain.DocumentUploaded,
		Storage:    domain.StorageRef{Bucket: n.Bucket, Key: n.Key},
		UploadedAt: s.now().UTC(),
	}
	if s.objects != nil {
		if err := s.describe(ctx, &doc); err != nil {
			return domain.IntakeResult{}, err
		}
	}

	var jobID string
	err = s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		v, err := tx.GetVendor(ctx, doc.VendorID)
		if err != nil {
			return err
		}
		if err := tx.CreateDocument(ctx, doc); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return errSkip
			}
			return fmt.Errorf("insert document: %w", err)
		}
		if jobID, err = tx.EnqueueDocumentJob(ctx, doc.ID); err != nil {
			return fmt.Errorf("enqueue document job: %w", err)
		}
		if v.Status == domain.VendorSubmitted {
			next := domain.VendorDocumentsPending
			if err := tx.UpdateVendorStatus(ctx, v.ID, next, next.Progress()); err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, s.audit(v.ID, domain.ActionVendorStatusChanged, domain.SystemActor, map[string]any{
				"from": string(v.Status),
				"to":   string(next),
			})); err != nil {
				return err
			}
		}
		return tx.AppendAudit(ctx, s.audit(v.ID, domain.ActionDocumentUploaded, domain.SystemActor, map[string]any{
			"document_id":   doc.ID,
			"document_type": string(doc.Type),
			"file_size":     doc.SizeBytes,
			"s3_key":        doc.Storage.Key,
		}))
	})
	if errors.Is(err, errSkip) {
		existing, gerr := s.store.GetDocument(ctx, doc.ID)
		if gerr != nil {
			return domain.IntakeResult{}, gerr
		}
		log.Info("document already recorded, skipping")
		return domain.IntakeResult{Document: existing, Skipped: true}, nil
	}
	if err != nil {
		return domain.IntakeResult{}, err
	}
	log.WithField("job_id", jobID).Info("document queued")
	return domain.IntakeResult{Document: doc, JobID: jobID}, nil
}

func (s *Service) describe(ctx context.Context, doc *domain.Document) error {
	info, err := s.objects.Stat(ctx, doc.Storage.Bucket, doc.Storage.Key)
	if err != nil {
		return fmt.Errorf("stat document: %w", err)
	}
	doc.SizeBytes = info.Size
	doc.MIMEType = info.ContentType

	rc, err := s.objects.Get(ctx, doc.Storage.Bucket, doc.Storage.Key)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	defer rc.Close()
	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil {
		return fmt.Errorf("hash document: %w", err)
	}
	doc.SHA256 = hex.EncodeToString(h.Sum(nil))
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Document, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Document{}, domain.Invalid("document_id", "is required")
	}
	return s.store.GetDocument(ctx, id)
}

// Process runs OCR on a document and stores the extracted record. On OCR
// failure, or when ctx's deadline passes mid-run, the failure record is
// stored, the document stays in processing and ErrOCRFailed is returned.
func (s *Service) Process(ctx context.Context, documentID string) error {
	log := s.log.WithField("document_id", documentID)
	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, "document:"+documentID, s.lockTTL)
		if err != nil {
			return fmt.Errorf("lock document %s: %w", documentID, err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.WithError(err).Warn("release document lock")
			}
		}()
	}

	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := domain.TransitionDocument(doc.Status, domain.DocumentProcessing); err != nil {
		return err
	}
	doc.Status = domain.DocumentProcessing
	doc.ExtractedData = processingPlaceholder
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	res, err := s.ocr.Run(ctx, ocr.Location{Bucket: doc.Storage.Bucket, Key: doc.Storage.Key})
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			// caller deadline shorter than the poll budget
			timedOut := ocr.Result{Outcome: ocr.OutcomeTimedOut, JobID: res.JobID, Attempts: res.Attempts}
			return s.recordFailure(context.WithoutCancel(ctx), doc, timedOut.Failure(), log)
		case ctx.Err() != nil:
			return err
		}
		res = ocr.Result{Outcome: ocr.OutcomeFailed, Message: err.Error()}
	}
	if !res.Succeeded() {
		return s.recordFailure(ctx, doc, res.Failure(), log)
	}

	rec := res.Record
	rec.DocumentType = string(doc.Type)
	rec.Fields = extract.Extract(rec, doc.Type)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode extracted record: %w", err)
	}
	processedAt := s.now().UTC()
	doc.Status = domain.DocumentExtracted
	doc.ExtractedData = data
	doc.ProcessedAt = &processedAt

	err = s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		if err := tx.UpdateDocument(ctx, doc); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, s.audit(doc.VendorID, domain.ActionDocumentProcessed, domain.SystemActor, map[string]any{
			"document_id":   doc.ID,
			"document_type": string(doc.Type),
			"confidence":    rec.AverageConfidence,
			"ocr_job_id":    rec.JobID,
		}))
	})
	if err != nil {
		return fmt.Errorf("store extracted record: %w", err)
	}
	log.WithFields(logrus.Fields{"ocr_job_id": rec.JobID, "confidence": rec.AverageConfidence}).Info("document extracted")
	return nil
}

func (s *Service) recordFailure(ctx context.Context, doc domain.Document, f ocr.Failure, log logrus.FieldLogger) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode failure record: %w", err)
	}
	doc.ExtractedData = data
	entry := s.audit(doc.VendorID, domain.ActionDocumentProcessingFailed, domain.SystemActor, map[string]any{
		"document_id": doc.ID,
		"outcome":     string(f.Outcome),
		"ocr_job_id":  f.JobID,
	})
	entry.Success = false
	entry.ErrorMessage = f.Error
	if f.StatusMessage != "" {
		entry.ErrorMessage += ": " + f.StatusMessage
	}
	err = s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		if err := tx.UpdateDocument(ctx, doc); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, entry)
	})
	if err != nil {
		return fmt.Errorf("store failure record: %w", err)
	}
	log.WithFields(logrus.Fields{"outcome": f.Outcome, "ocr_job_id": f.JobID}).Warn(f.Error)
	return fmt.Errorf("%w: %s", ErrOCRFailed, entry.ErrorMessage)
}

// MarkFailed moves a processing document to failed.
func (s *Service) MarkFailed(ctx context.Context, documentID, actor string) (domain.Document, error) {
	return s.move(ctx, documentID, domain.DocumentFailed, domain.ActionDocumentFailed, actor)
}

// Verify records a reviewer's acceptance of extracted data.
func (s *Service) Verify(ctx context.Context, documentID, actor string) (domain.Document, error) {
	return s.move(ctx, documentID, domain.DocumentVerified, domain.ActionDocumentVerified, actor)
}

func (s *Service) move(ctx context.Context, documentID string, to domain.DocumentStatus, action, actor string) (domain.Document, error) {
	if actor == "" {
		actor = domain.SystemActor
	}
	var doc domain.Document
	err := s.store.WithinTx(ctx, func(tx ports.Repositories) error {
		var err error
		if doc, err = tx.GetDocument(ctx, documentID); err != nil {
			return err
		}
		from := doc.Status
		if err := domain.TransitionDocument(from, to); err != nil {
			return err
		}
		doc.Status = to
		if err := tx.UpdateDocument(ctx, doc); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, s.audit(doc.VendorID, action, actor, map[string]any{
			"document_id": doc.ID,
			"from":        string(from),
		}))
	})
	if err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// Reprocess queues another processing job for a document.
func (s *Service) Reprocess(ctx context.Context, documentID string) (string, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if err := domain.TransitionDocument(doc.Status, domain.DocumentProcessing); err != nil {
		return "", err
	}
	return s.store.EnqueueDocumentJob(ctx, documentID)
}

func (s *Service) audit(vendorID, action, actor string, meta map[string]any) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:        uuid.NewString(),
		VendorID:  &vendorID,
		Action:    action,
		Actor:     actor,
		Metadata:  meta,
		Success:   true,
		Timestamp: s.now().UTC(),
	}
}

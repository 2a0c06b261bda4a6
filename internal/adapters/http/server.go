package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"onboardhub/internal/domain"
	"onboardhub/internal/ocr"
	"onboardhub/internal/ports"
	docsvc "onboardhub/internal/services/documents"
	"onboardhub/internal/workers/docrunner"
)

const (
	maxBodyBytes = 1 << 20
	// waitMargin covers OCR submission and per-poll latency on top of the
	// driver's poll budget.
	waitMargin = 15 * time.Second
)

// InlineWaitTimeout is the ?wait=true deadline for an OCR driver whose polls
// alone can take pollBudget.
func InlineWaitTimeout(pollBudget time.Duration) time.Duration {
	return pollBudget + waitMargin
}

type Server struct {
	vendors   ports.Vendors
	documents ports.Documents
	scoring   ports.Scoring
	jobs      ports.JobRepository
	processor docrunner.DocumentProcessor
	jwtSecret string
	wait      time.Duration
	log       logrus.FieldLogger
}

type Deps struct {
	Vendors   ports.Vendors
	Documents ports.Documents
	Scoring   ports.Scoring
	Jobs      ports.JobRepository
	// Processor runs the ?wait=true path; it is normally the documents service.
	Processor docrunner.DocumentProcessor
	JWTSecret string
	// WaitTimeout bounds ?wait=true when the request gives no timeout. Zero
	// means InlineWaitTimeout of the default OCR poll budget.
	WaitTimeout time.Duration
	Log         logrus.FieldLogger
}

func New(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	wait := d.WaitTimeout
	if wait <= 0 {
		wait = InlineWaitTimeout(ocr.DefaultPollInterval * ocr.DefaultMaxAttempts)
	}
	return &Server{
		vendors:   d.Vendors,
		documents: d.Documents,
		scoring:   d.Scoring,
		jobs:      d.Jobs,
		processor: d.Processor,
		jwtSecret: d.JWTSecret,
		wait:      wait,
		log:       log,
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(s.jwtSecret))

		r.Route("/vendors", func(r chi.Router) {
			r.Post("/", s.postVendor)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getVendor)
				r.Get("/status", s.getVendorStatus)
				r.Post("/questionnaire", s.postQuestionnaire)
				r.Post("/transitions", s.postTransition)
				r.Post("/approve", s.postDecision)
				r.Post("/risk-score", s.postRiskScore)
				r.Get("/risk-score", s.getRiskScore)
				r.Get("/audit", s.getAudit)
			})
		})

		r.Route("/documents", func(r chi.Router) {
			r.Post("/notifications", s.postNotification)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getDocument)
				r.Post("/process", s.postProcess)
				r.Post("/verify", s.postVerify)
				r.Post("/fail", s.postFail)
			})
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := s.log.WithField("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), loggerKey{}, l)))
		l.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &httpError{code: http.StatusBadRequest, msg: "missing body"}
		}
		return &httpError{code: http.StatusBadRequest, msg: fmt.Sprintf("invalid body: %v", err)}
	}
	return nil
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Vendors

func (s *Server) postVendor(w http.ResponseWriter, r *http.Request) {
	var req createVendorRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.vendors.Create(r.Context(), domain.NewVendor{
		CompanyName:  req.CompanyName,
		ContactEmail: string(req.ContactEmail),
		TaxID:        req.EIN,
		Address:      req.Address,
		ContactPhone: req.ContactPhone,
		Source:       "api",
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVendor(v))
}

func (s *Server) getVendor(w http.ResponseWriter, r *http.Request) {
	v, err := s.vendors.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVendor(v))
}

func (s *Server) getVendorStatus(w http.ResponseWriter, r *http.Request) {
	rep, err := s.vendors.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatus(rep))
}

func (s *Server) postQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req questionnaireRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := s.vendors.SubmitQuestionnaire(r.Context(), chi.URLParam(r, "id"), ActorFrom(r.Context()), domain.QuestionnaireSubmission{
		Answers:        req.Answers,
		TotalQuestions: req.TotalQuestions,
		AutoFilled:     req.AutoFilled,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, questionnaireResponse{
		ID:                   q.ID,
		VendorID:             q.VendorID,
		TotalQuestions:       q.TotalQuestions,
		AnsweredQuestions:    q.AnsweredQuestions,
		CompletionPercentage: q.CompletionPercentage,
		AutoFilled:           q.AutoFilled,
		CompletedAt:          q.CompletedAt,
	})
}

func (s *Server) postTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	to, err := domain.ParseVendorStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.vendors.Transition(r.Context(), chi.URLParam(r, "id"), to, ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVendor(v))
}

func (s *Server) postDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Approved == nil {
		writeError(w, r, domain.Invalid("approved", "is required"))
		return
	}
	a, err := s.vendors.Decide(r.Context(), chi.URLParam(r, "id"), domain.Decision{
		Approved: *req.Approved,
		Comments: req.Comments,
		Actor:    ActorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApproval(a))
}

func (s *Server) postRiskScore(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scoring.Assess(r.Context(), chi.URLParam(r, "id"), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRiskScore(sc))
}

func (s *Server) getRiskScore(w http.ResponseWriter, r *http.Request) {
	sc, err := s.scoring.Latest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRiskScore(sc))
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := s.vendors.Audit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]auditResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditResponse{
			ID:           e.ID,
			VendorID:     e.VendorID,
			Action:       e.Action,
			Actor:        e.Actor,
			Metadata:     e.Metadata,
			Success:      e.Success,
			ErrorMessage: e.ErrorMessage,
			Timestamp:    e.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Documents

func (s *Server) postNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.documents.Intake(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	code := http.StatusAccepted
	if res.Skipped {
		code = http.StatusOK
	}
	writeJSON(w, code, intakeResponse{Document: toDocument(res.Document), JobID: res.JobID, Skipped: res.Skipped})
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	d, err := s.documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocument(d))
}

// postProcess queues a document for (re)processing. With wait=true the job
// is run inline and the resulting document is returned; an already queued job
// for the document is reused.
func (s *Server) postProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		jobID, err := s.documents.Reprocess(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, processAcceptedResponse{DocumentID: id, JobID: jobID})
		return
	}

	timeout := s.wait
	if t, err := strconv.Atoi(r.URL.Query().Get("timeout")); err == nil && t > 0 {
		timeout = time.Duration(t) * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	// Use the same processor the workers use
	err := docrunner.ProcessInline(ctx, s.jobs, s.processor, id)
	if errors.Is(err, domain.ErrNotFound) {
		if _, err = s.documents.Reprocess(ctx, id); err == nil {
			err = docrunner.ProcessInline(ctx, s.jobs, s.processor, id)
		}
	}
	if err != nil && !errors.Is(err, docsvc.ErrOCRFailed) {
		writeError(w, r, err)
		return
	}
	d, err := s.documents.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocument(d))
}

func (s *Server) postVerify(w http.ResponseWriter, r *http.Request) {
	d, err := s.documents.Verify(r.Context(), chi.URLParam(r, "id"), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocument(d))
}

func (s *Server) postFail(w http.ResponseWriter, r *http.Request) {
	d, err := s.documents.MarkFailed(r.Context(), chi.URLParam(r, "id"), ActorFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocument(d))
}

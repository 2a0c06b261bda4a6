package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"onboardhub/internal/adapters/memory"
	"onboardhub/internal/adapters/sanctions"
	"onboardhub/internal/domain"
	"onboardhub/internal/ocr"
	"onboardhub/internal/risk"
	docsvc "onboardhub/internal/services/documents"
	"onboardhub/internal/services/scoring"
	"onboardhub/internal/services/vendors"
)

type stubRunner struct {
	calls int
	stuck bool
}

func (s *stubRunner) Run(ctx context.Context, _ ocr.Location) (ocr.Result, error) {
	s.calls++
	if s.stuck {
		<-ctx.Done()
		return ocr.Result{JobID: "job-1", Attempts: 3}, ctx.Err()
	}
	rec := ocr.Normalize([]ocr.Block{
		{ID: "l1", Type: ocr.BlockLine, Text: "Form W-9", Confidence: 97},
		{ID: "k1", Type: ocr.BlockKeyValueSet, EntityTypes: []string{ocr.EntityKey}, Text: "Name:", Confidence: 95,
			Relationships: []ocr.Relationship{{Type: ocr.RelValue, IDs: []string{"v1"}}}},
		{ID: "v1", Type: ocr.BlockKeyValueSet, EntityTypes: []string{ocr.EntityValue}, Text: "Acme Corp", Confidence: 93},
	})
	return ocr.Result{Outcome: ocr.OutcomeSucceeded, JobID: "job-1", Attempts: 1, Record: &rec}, nil
}

type testEnv struct {
	srv    *httptest.Server
	store  *memory.Store
	runner *stubRunner
}

func newEnv(t *testing.T, secret string, opts ...func(*Deps)) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store := memory.NewStore()
	runner := &stubRunner{}
	docs := docsvc.New(store, runner, log, docsvc.WithLocker(memory.NewLocker(), time.Minute))
	d := Deps{
		Vendors:   vendors.New(store, log),
		Documents: docs,
		Scoring:   scoring.New(store, sanctions.NewStub(log), risk.NewEngine(risk.DefaultPolicy()), log),
		Jobs:      store,
		Processor: docs,
		JWTSecret: secret,
		Log:       log,
	}
	for _, o := range opts {
		o(&d)
	}
	s := New(d)
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: store, runner: runner}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func expect(t *testing.T, resp *http.Response, body []byte, code int) {
	t.Helper()
	if resp.StatusCode != code {
		t.Fatalf("%s %s = %d, want %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, code, body)
	}
}

func (e *testEnv) createVendor(t *testing.T, token string) vendorResponse {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/vendors", map[string]any{
		"company_name":  "Acme Corp",
		"contact_email": "ops@acme.co.uk",
		"ein":           "12-3456789",
	}, token)
	expect(t, resp, body, http.StatusCreated)
	var v vendorResponse
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	env := newEnv(t, "secret")
	resp, body := env.do(t, http.MethodGet, "/healthz", nil, "")
	expect(t, resp, body, http.StatusOK)
}

func TestCreateVendorAndStatus(t *testing.T) {
	env := newEnv(t, "")
	v := env.createVendor(t, "")
	if v.Status != domain.VendorSubmitted || v.EmailDomain != "acme.co.uk" || v.Integrations.KY3PAssessmentID == "" {
		t.Fatalf("vendor = %+v", v)
	}

	resp, body := env.do(t, http.MethodGet, "/vendors/"+v.ID+"/status", nil, "")
	expect(t, resp, body, http.StatusOK)
	var st statusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatal(err)
	}
	if len(st.NextSteps) != 5 || st.NextSteps[4] != "Complete ESG Questionnaire" || st.RiskScore != nil {
		t.Fatalf("status = %+v", st)
	}
}

func TestCreateVendorValidation(t *testing.T) {
	env := newEnv(t, "")
	resp, body := env.do(t, http.MethodPost, "/vendors", map[string]any{"company_name": "Acme", "contact_email": "not-an-email"}, "")
	expect(t, resp, body, http.StatusBadRequest)

	resp, body = env.do(t, http.MethodPost, "/vendors", map[string]any{"contact_email": "a@b.com"}, "")
	expect(t, resp, body, http.StatusBadRequest)
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	if eb.Field != "company_name" {
		t.Fatalf("error body = %+v", eb)
	}
}

func TestUnknownVendor(t *testing.T) {
	env := newEnv(t, "")
	resp, body := env.do(t, http.MethodGet, "/vendors/"+uuid.NewString(), nil, "")
	expect(t, resp, body, http.StatusNotFound)
}

func TestDocumentLifecycle(t *testing.T) {
	env := newEnv(t, "")
	v := env.createVendor(t, "")
	docID := uuid.NewString()

	resp, body := env.do(t, http.MethodPost, "/documents/notifications", map[string]any{
		"bucket": "vendor-docs",
		"key":    "vendors/" + v.ID + "/w9/" + docID + "/w9.pdf",
	}, "")
	expect(t, resp, body, http.StatusAccepted)

	// duplicate notification is acknowledged without a new job
	resp, body = env.do(t, http.MethodPost, "/documents/notifications", map[string]any{
		"bucket": "vendor-docs",
		"key":    "vendors/" + v.ID + "/w9/" + docID + "/w9.pdf",
	}, "")
	expect(t, resp, body, http.StatusOK)

	resp, body = env.do(t, http.MethodPost, "/documents/"+docID+"/process?wait=true&timeout=5", nil, "")
	expect(t, resp, body, http.StatusOK)
	var d documentResponse
	if err := json.Unmarshal(body, &d); err != nil {
		t.Fatal(err)
	}
	if d.Status != domain.DocumentExtracted || d.ProcessedAt == nil || len(d.ExtractedData) == 0 {
		t.Fatalf("document = %+v", d)
	}
	if env.runner.calls != 1 {
		t.Fatalf("ocr calls = %d", env.runner.calls)
	}
	if _, found, _ := env.store.ClaimNext(context.Background()); found {
		t.Fatal("intake job should have been consumed by the inline run")
	}

	resp, body = env.do(t, http.MethodPost, "/documents/"+docID+"/verify", nil, "")
	expect(t, resp, body, http.StatusOK)
	resp, body = env.do(t, http.MethodPost, "/documents/"+docID+"/process", nil, "")
	expect(t, resp, body, http.StatusConflict)
}

func TestInlineWaitOutlastsPollBudget(t *testing.T) {
	budget := ocr.DefaultPollInterval * ocr.DefaultMaxAttempts
	if got := New(Deps{}).wait; got <= budget {
		t.Fatalf("default wait = %s, want more than the %s poll budget", got, budget)
	}
	if got := New(Deps{WaitTimeout: 2 * time.Second}).wait; got != 2*time.Second {
		t.Fatalf("wait = %s", got)
	}
	if got := InlineWaitTimeout(time.Second); got <= time.Second {
		t.Fatalf("InlineWaitTimeout(1s) = %s", got)
	}
}

func TestProcessWaitDeadlineRecordsTimeout(t *testing.T) {
	env := newEnv(t, "", func(d *Deps) { d.WaitTimeout = 30 * time.Millisecond })
	env.runner.stuck = true
	v := env.createVendor(t, "")
	docID := uuid.NewString()
	resp, body := env.do(t, http.MethodPost, "/documents/notifications", map[string]any{
		"bucket": "vendor-docs",
		"key":    "vendors/" + v.ID + "/w9/" + docID + "/w9.pdf",
	}, "")
	expect(t, resp, body, http.StatusAccepted)

	resp, body = env.do(t, http.MethodPost, "/documents/"+docID+"/process?wait=true", nil, "")
	expect(t, resp, body, http.StatusOK)
	var d documentResponse
	if err := json.Unmarshal(body, &d); err != nil {
		t.Fatal(err)
	}
	var f ocr.Failure
	if err := json.Unmarshal(d.ExtractedData, &f); err != nil {
		t.Fatalf("extracted_data = %s: %v", d.ExtractedData, err)
	}
	if d.Status != domain.DocumentProcessing || f.Outcome != ocr.OutcomeTimedOut || f.JobID != "job-1" {
		t.Fatalf("document = %s, failure = %+v", d.Status, f)
	}
}

func TestProcessQueuesJob(t *testing.T) {
	env := newEnv(t, "")
	v := env.createVendor(t, "")
	docID := uuid.NewString()
	resp, body := env.do(t, http.MethodPost, "/documents/notifications", map[string]any{
		"bucket":        "vendor-docs",
		"key":           "uploads/coi.pdf",
		"vendor_id":     v.ID,
		"document_id":   docID,
		"document_type": "insurance_certificate",
	}, "")
	expect(t, resp, body, http.StatusAccepted)

	resp, body = env.do(t, http.MethodPost, "/documents/"+docID+"/process", nil, "")
	expect(t, resp, body, http.StatusAccepted)
	var acc processAcceptedResponse
	_ = json.Unmarshal(body, &acc)
	if acc.JobID == "" || acc.DocumentID != docID {
		t.Fatalf("accepted = %+v", acc)
	}
}

func TestApprovalFlow(t *testing.T) {
	env := newEnv(t, "")
	v := env.createVendor(t, "")

	resp, body := env.do(t, http.MethodPost, "/vendors/"+v.ID+"/approve", map[string]any{"comments": "?"}, "")
	expect(t, resp, body, http.StatusBadRequest)

	resp, body = env.do(t, http.MethodPost, "/vendors/"+v.ID+"/approve", map[string]any{"approved": true, "comments": "ok"}, "")
	expect(t, resp, body, http.StatusOK)
	var a approvalResponse
	_ = json.Unmarshal(body, &a)
	if a.Status != domain.ApprovalApproved || a.DecisionBy != domain.SystemActor {
		t.Fatalf("approval = %+v", a)
	}

	resp, body = env.do(t, http.MethodPost, "/vendors/"+v.ID+"/approve", map[string]any{"approved": false}, "")
	expect(t, resp, body, http.StatusConflict)

	resp, body = env.do(t, http.MethodPost, "/vendors/"+v.ID+"/transitions", map[string]any{"status": "onboarding_complete"}, "")
	expect(t, resp, body, http.StatusOK)
	resp, body = env.do(t, http.MethodPost, "/vendors/"+v.ID+"/transitions", map[string]any{"status": "bogus"}, "")
	expect(t, resp, body, http.StatusBadRequest)
}

func TestRiskScore(t *testing.T) {
	env := newEnv(t, "")
	v := env.createVendor(t, "")

	resp, body := env.do(t, http.MethodGet, "/vendors/"+v.ID+"/risk-score", nil, "")
	expect(t, resp, body, http.StatusNotFound)

	resp, body = env.do(t, http.MethodPost, "/vendors/"+v.ID+"/questionnaire", map[string]any{
		"answers":         map[string]any{"q1": "yes", "q2": ""},
		"total_questions": 2,
	}, "")
	expect(t, resp, body, http.StatusCreated)

	resp, body = env.do(t, http.MethodPost, "/vendors/"+v.ID+"/risk-score", nil, "")
	expect(t, resp, body, http.StatusCreated)

	resp, body = env.do(t, http.MethodGet, "/vendors/"+v.ID+"/risk-score", nil, "")
	expect(t, resp, body, http.StatusOK)
	var rs riskScoreResponse
	if err := json.Unmarshal(body, &rs); err != nil {
		t.Fatal(err)
	}
	if rs.Scores.ESG != 25 || rs.RiskLevel == "" || rs.Sanctions.ResponseTimeMS != 347 {
		t.Fatalf("risk score = %+v", rs)
	}
	if got := rs.NextReviewAt.Sub(rs.CalculatedAt); got != risk.ReviewInterval {
		t.Fatalf("next review offset = %v", got)
	}
}

func TestAuthenticatedActorIsAudited(t *testing.T) {
	const secret = "s3cret"
	env := newEnv(t, secret)

	resp, body := env.do(t, http.MethodPost, "/vendors", map[string]any{"company_name": "A", "contact_email": "a@b.com"}, "")
	expect(t, resp, body, http.StatusUnauthorized)
	resp, body = env.do(t, http.MethodGet, "/vendors/x", nil, "garbage")
	expect(t, resp, body, http.StatusUnauthorized)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "reviewer@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	v := env.createVendor(t, tok)
	resp, body = env.do(t, http.MethodPost, "/vendors/"+v.ID+"/approve", map[string]any{"approved": false, "comments": "no"}, tok)
	expect(t, resp, body, http.StatusOK)

	resp, body = env.do(t, http.MethodGet, "/vendors/"+v.ID+"/audit", nil, tok)
	expect(t, resp, body, http.StatusOK)
	var entries []auditResponse
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatal(err)
	}
	last := entries[len(entries)-1]
	if last.Action != "vendor_rejected" || last.Actor != "reviewer@example.com" {
		t.Fatalf("audit = %+v", entries)
	}
}

func TestBearer(t *testing.T) {
	cases := map[string]bool{
		"Bearer abc": true,
		"bearer abc": true,
		"Basic abc":  false,
		"Bearer ":    false,
		"":           false,
	}
	for h, ok := range cases {
		if _, got := bearer(h); got != ok {
			t.Errorf("bearer(%q) = %v", h, got)
		}
	}
}

package jobs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"jobtrack-backend/internal/audit"
	"jobtrack-backend/internal/shared/server/middleware"
	"jobtrack-backend/internal/summarize"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := NewMemoryRepo()
	svc := &Service{
		Repo:       repo,
		Sysid:      NewGenerator(repo),
		Audit:      audit.NewRecorder(audit.NewMemoryRepo()),
		Summarizer: &stubSummarizer{results: []summarize.Result{fullResult()}},
	}

	r := gin.New()
	r.Use(middleware.Actor())
	api := r.Group("/api/v1")
	handler := NewHandler(svc)
	handler.RegisterRoutes(api)
	handler.RegisterSummaryRoutes(api)
	return r, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-Id", "user-1")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerCreateJob(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/jobs", map[string]any{
		"jobId":       "ORD-H1",
		"instruction": testInstruction,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}

	var job Job
	if err := json.Unmarshal(resp.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.Status != StatusDraft {
		t.Fatalf("status = %s, want draft", job.Status)
	}
	if job.SystemID == "" {
		t.Fatalf("system id missing")
	}
}

func TestHandlerCreateRequiresActor(t *testing.T) {
	r, _ := newTestRouter(t)

	payload, _ := json.Marshal(map[string]any{"jobId": "ORD-H2", "instruction": testInstruction})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestHandlerDuplicateJobIDConflicts(t *testing.T) {
	r, _ := newTestRouter(t)

	body := map[string]any{"jobId": "ORD-H3", "instruction": testInstruction}
	if resp := doJSON(t, r, http.MethodPost, "/api/v1/jobs", body); resp.Code != http.StatusCreated {
		t.Fatalf("first create: %d", resp.Code)
	}
	resp := doJSON(t, r, http.MethodPost, "/api/v1/jobs", body)
	if resp.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.Code)
	}

	check := doJSON(t, r, http.MethodGet, "/api/v1/jobs/check-job-id?jobId=ORD-H3", nil)
	var payload map[string]bool
	if err := json.Unmarshal(check.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["available"] {
		t.Fatalf("expected job id unavailable")
	}
}

func TestHandlerGetUnknownJob(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := doJSON(t, r, http.MethodGet, "/api/v1/jobs/CH-MISSING", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestHandlerSummaryFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	created := doJSON(t, r, http.MethodPost, "/api/v1/jobs", map[string]any{
		"jobId":       "ORD-H4",
		"instruction": testInstruction,
	})
	var job Job
	if err := json.Unmarshal(created.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp := doJSON(t, r, http.MethodPost, "/api/v1/jobs/"+job.SystemID+"/summary", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("summary status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Summary  SummaryVersionRecord `json:"summary"`
		Advanced bool                 `json:"advanced"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !payload.Advanced {
		t.Fatalf("complete summary did not advance")
	}
	if payload.Summary.VersionNumber != 1 {
		t.Fatalf("version = %d, want 1", payload.Summary.VersionNumber)
	}

	versions := doJSON(t, r, http.MethodGet, "/api/v1/jobs/"+job.SystemID+"/summary/versions", nil)
	if versions.Code != http.StatusOK {
		t.Fatalf("versions status = %d", versions.Code)
	}

	// Generating against a non-draft job is now a conflict.
	resp = doJSON(t, r, http.MethodPost, "/api/v1/jobs/"+job.SystemID+"/summary", nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("second summary status = %d, want 409", resp.Code)
	}
}

func TestHandlerFinalizeValidation(t *testing.T) {
	r, svc := newTestRouter(t)

	created := doJSON(t, r, http.MethodPost, "/api/v1/jobs", map[string]any{
		"jobId":       "ORD-H5",
		"instruction": testInstruction,
	})
	var job Job
	if err := json.Unmarshal(created.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	seedStatus(t, svc.Repo.(*MemoryRepo), job.SystemID, StatusPending)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/jobs/"+job.SystemID+"/finalize", map[string]any{
		"category": "FINANCE",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}

	resp = doJSON(t, r, http.MethodPost, "/api/v1/jobs/"+job.SystemID+"/finalize", validFinalizeInput())
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var finalized Job
	if err := json.Unmarshal(resp.Body.Bytes(), &finalized); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if finalized.Status != StatusUnallocated {
		t.Fatalf("status = %s, want unallocated", finalized.Status)
	}
}

func TestHandlerListValidatesStatus(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := doJSON(t, r, http.MethodGet, "/api/v1/jobs?status=bogus", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/v1/jobs?status=draft", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
}

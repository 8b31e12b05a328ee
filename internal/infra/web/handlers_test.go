package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"question-bank-service/internal/domain"
	"question-bank-service/internal/domain/model"
)

const testAdminKey = "test-admin-key"

func newTestServer(gen *fakeGenUC, history *fakeHistoryUC) http.Handler {
	log := zerolog.Nop()
	auth := NewAuthManager("test-secret", false, "", 30*time.Minute)
	srv := NewServer(gen, history, auth, testAdminKey, "/questionBankService", 10*time.Second, &log)
	return srv.Router()
}

func validBody() []byte {
	b, _ := json.Marshal(map[string]any{
		"contentId":                  "content-42",
		"chapter_name":               "Photosynthesis",
		"total_questions":            4,
		"question_type_distribution": map[string]int{"mcq": 2, "tf": 1, "fib": 1},
	})
	return b
}

func TestHealth(t *testing.T) {
	t.Parallel()
	r := newTestServer(newFakeGenUC(), newFakeHistoryUC())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGenerate_Accepted(t *testing.T) {
	t.Parallel()
	r := newTestServer(newFakeGenUC(), newFakeHistoryUC())

	req := httptest.NewRequest(http.MethodPost, "/questionBankService/generate", bytes.NewReader(validBody()))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("want 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		SessionID string `json:"session_id"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SessionID == "" {
		t.Fatalf("expected a session id")
	}
	if body.Status != string(model.JobStatusPending) {
		t.Fatalf("want pending, got %s", body.Status)
	}
}

func TestGenerate_BadRequest(t *testing.T) {
	t.Parallel()
	r := newTestServer(newFakeGenUC(), newFakeHistoryUC())

	cases := map[string]string{
		"not json":          `{{`,
		"missing content":   `{"total_questions":4,"question_type_distribution":{"mcq":4}}`,
		"sum off":           `{"contentId":"c","total_questions":4,"question_type_distribution":{"mcq":1}}`,
		"unknown type":      `{"contentId":"c","total_questions":4,"question_type_distribution":{"essay":4}}`,
		"zero questions":    `{"contentId":"c","total_questions":0,"question_type_distribution":{"mcq":0}}`,
		"no distribution":   `{"contentId":"c","total_questions":4}`,
	}
	for name, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/questionBankService/generate", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d", name, rec.Code)
		}
	}
}

func TestGenerate_DuplicateSession(t *testing.T) {
	t.Parallel()
	r := newTestServer(newFakeGenUC(), newFakeHistoryUC())

	body, _ := json.Marshal(map[string]any{
		"session_id":                 "sess-1",
		"contentId":                  "content-42",
		"total_questions":            2,
		"question_type_distribution": map[string]int{"tf": 2},
	})

	req := httptest.NewRequest(http.MethodPost, "/questionBankService/generate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first submit: want 202, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/questionBankService/generate", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate submit: want 409, got %d", rec.Code)
	}
}

func TestGenerate_RateLimited(t *testing.T) {
	t.Parallel()
	gen := newFakeGenUC()
	gen.submitErr = domain.ErrRateLimited
	r := newTestServer(gen, newFakeHistoryUC())

	req := httptest.NewRequest(http.MethodPost, "/questionBankService/generate", bytes.NewReader(validBody()))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", rec.Code)
	}
}

func TestStatus_Lifecycle(t *testing.T) {
	t.Parallel()
	gen := newFakeGenUC()
	r := newTestServer(gen, newFakeHistoryUC())

	job, err := gen.Submit(httptest.NewRequest("GET", "/", nil).Context(), "sess-status", "src", model.GenerationParams{
		ContentID:        "content-42",
		TotalQuestions:   1,
		TypeDistribution: map[string]int{"tf": 1},
	})
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/questionBankService/status/sess-status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var body statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SessionID != "sess-status" || body.Status != model.JobStatusPending {
		t.Fatalf("unexpected body: %+v", body)
	}

	// finish the job and poll again: questions appear in the payload
	_ = job.Transition(model.JobStatusInProgress)
	_ = job.Complete(&model.QuestionSet{
		SessionID: job.SessionID,
		Questions: []model.Question{{Type: model.QuestionTypeTF, Stem: "Go is compiled.", AnswerKey: "true"}},
	})

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/questionBankService/status/sess-status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	body = statusResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != model.JobStatusCompleted || body.QuestionsGenerated != 1 || len(body.Questions) != 1 {
		t.Fatalf("unexpected completed body: %+v", body)
	}
}

func TestStatus_NotFound(t *testing.T) {
	t.Parallel()
	r := newTestServer(newFakeGenUC(), newFakeHistoryUC())

	req := httptest.NewRequest(http.MethodGet, "/questionBankService/status/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestAdmin_RequiresAuth(t *testing.T) {
	t.Parallel()
	r := newTestServer(newFakeGenUC(), newFakeHistoryUC())

	for _, path := range []string{"/api/v1/history", "/api/v1/models", "/api/v1/stats"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: want 401, got %d", path, rec.Code)
		}
	}
}

func TestAdmin_LoginAndUseToken(t *testing.T) {
	t.Parallel()
	gen := newFakeGenUC()
	r := newTestServer(gen, newFakeHistoryUC())

	// wrong key is rejected
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("bad key: want 403, got %d", rec.Code)
	}

	// right key mints a token
	req = httptest.NewRequest(http.MethodPost, "/api/v1/login", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: want 200, got %d", rec.Code)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&login); err != nil || login.Token == "" {
		t.Fatalf("login token: err=%v token=%q", err, login.Token)
	}

	// token grants access to the admin API
	req = httptest.NewRequest(http.MethodGet, "/api/v1/models", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("models: want 200, got %d", rec.Code)
	}
	var models struct {
		Data []string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&models); err != nil {
		t.Fatalf("decode models: %v", err)
	}
	if len(models.Data) == 0 {
		t.Fatalf("expected at least one model")
	}
}

func TestAdmin_HistoryEndpoints(t *testing.T) {
	t.Parallel()
	gen := newFakeGenUC()
	history := newFakeHistoryUC()
	r := newTestServer(gen, history)

	job := model.NewGenerationJob("sess-h", "src", model.GenerationParams{
		ContentID:        "content-42",
		TotalQuestions:   1,
		TypeDistribution: map[string]int{"tf": 1},
	})
	_ = job.Transition(model.JobStatusInProgress)
	_ = job.Fail("provider unavailable")
	if err := history.Record(httptest.NewRequest("GET", "/", nil).Context(), job); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	// login first
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var login struct {
		Token string `json:"token"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&login)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("history list: want 200, got %d", rec.Code)
	}
	var list struct {
		Data  []*model.HistoryRecord `json:"data"`
		Total int                    `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Data) != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history/sess-h", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("history get: want 200, got %d", rec.Code)
	}
	var recBody model.HistoryRecord
	if err := json.NewDecoder(rec.Body).Decode(&recBody); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if recBody.Status != model.JobStatusFailed || recBody.Message != "provider unavailable" {
		t.Fatalf("unexpected record: %+v", recBody)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history/missing", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("history get missing: want 404, got %d", rec.Code)
	}
}

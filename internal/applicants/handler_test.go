package applicants

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/resumes"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/storage/object/local"
	"recruit-backend/internal/shared/telemetry"
)

type handlerEnv struct {
	router *gin.Engine
	repo   *flakyRepo
	board  *Board
	token  string
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)
	t.Setenv("JWT_SECRET", "handler-secret")

	cat, err := config.LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	repo := &flakyRepo{MemoryRepo: NewMemoryRepo()}
	uploader := resumes.NewUploader(local.New(t.TempDir(), "http://localhost:8080/api/v1/files"))
	board := NewBoard(repo, nil)
	h := NewHandler(&Service{Repo: repo, Uploader: uploader}, board, uploader, cat)

	r := gin.New()
	api := r.Group("/api/v1")
	h.RegisterPublicRoutes(api)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth())
	h.RegisterAdminRoutes(admin)

	token, err := auth.IssueAdminToken("google:1", "boss@example.com", "")
	if err != nil {
		t.Fatalf("IssueAdminToken: %v", err)
	}
	return &handlerEnv{router: r, repo: repo, board: board, token: token}
}

func (e *handlerEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if strings.Contains(path, "/admin/") {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func applicationBody(t *testing.T, fields map[string]string, fileName string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("cv", fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(file); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func formFields() map[string]string {
	return map[string]string{
		"firstName": "Jean",
		"lastName":  "Dupont",
		"email":     "jean@example.com",
		"phone":     "0612345678",
		"position":  "Serveur",
		"startDate": "2026-06-01",
		"endDate":   "2026-08-31",
		"notes":     "Week-ends",
	}
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return body.Error.Code
}

func TestSubmitApplicationWithResume(t *testing.T) {
	env := newHandlerEnv(t)
	body, ct := applicationBody(t, formFields(), "cv.pdf", []byte("%PDF-1.4 test"))

	resp := env.do(t, http.MethodPost, "/api/v1/applications", body, ct)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created ApplicantResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Status != StatusNew || created.StatusLabel != "Nouveau" {
		t.Fatalf("unexpected response: %+v", created)
	}
	if created.CVFileName != "cv.pdf" || !strings.HasPrefix(created.CVURL, "http://localhost:8080/api/v1/files/") {
		t.Fatalf("unexpected resume reference: %+v", created)
	}

	// The admin can download the stored file back.
	dl := env.do(t, http.MethodGet, "/api/v1/admin/applicants/"+created.ID+"/resume", nil, "")
	if dl.Code != http.StatusOK || dl.Body.String() != "%PDF-1.4 test" {
		t.Fatalf("unexpected download: %d %q", dl.Code, dl.Body.String())
	}
	if got := dl.Header().Get("Content-Disposition"); !strings.Contains(got, "cv.pdf") {
		t.Fatalf("unexpected disposition: %q", got)
	}
}

func TestSubmitApplicationValidation(t *testing.T) {
	env := newHandlerEnv(t)

	tests := []struct {
		name   string
		mutate func(map[string]string)
		file   string
	}{
		{name: "missing phone", mutate: func(f map[string]string) { delete(f, "phone") }},
		{name: "bad email", mutate: func(f map[string]string) { f["email"] = "not-an-email" }},
		{name: "bad date", mutate: func(f map[string]string) { f["startDate"] = "01/06/2026" }},
		{name: "blank name", mutate: func(f map[string]string) { f["firstName"] = "   " }},
		{name: "unsupported file", mutate: func(map[string]string) {}, file: "cv.exe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := formFields()
			tt.mutate(fields)
			var data []byte
			if tt.file != "" {
				data = []byte("MZ")
			}
			body, ct := applicationBody(t, fields, tt.file, data)
			resp := env.do(t, http.MethodPost, "/api/v1/applications", body, ct)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
			if code := decodeError(t, resp); code != "validation_error" {
				t.Fatalf("expected validation_error, got %s", code)
			}
		})
	}
	if list, _ := env.repo.MemoryRepo.List(t.Context()); len(list) != 0 {
		t.Fatalf("invalid submissions must not be stored, got %d", len(list))
	}
}

func TestSubmitApplicationStoreFailure(t *testing.T) {
	env := newHandlerEnv(t)
	cat, _ := config.LoadCatalog("")
	h := NewHandler(&Service{Repo: failingCreateRepo{NewMemoryRepo()}}, env.board, nil, cat)
	r := gin.New()
	h.RegisterPublicRoutes(r.Group("/api/v1"))

	body, ct := applicationBody(t, formFields(), "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if code := decodeError(t, resp); code != "submission_failed" {
		t.Fatalf("expected submission_failed, got %s", code)
	}
}

func TestSubmitApplicationFallsBackToInlineResume(t *testing.T) {
	env := newHandlerEnv(t)
	cat, _ := config.LoadCatalog("")
	// No object store configured: the resume must be embedded as a data URI.
	uploader := resumes.NewUploader(nil)
	h := NewHandler(&Service{Repo: env.repo, Uploader: uploader}, env.board, uploader, cat)
	r := gin.New()
	h.RegisterPublicRoutes(r.Group("/api/v1"))

	body, ct := applicationBody(t, formFields(), "photo.png", []byte("PNG-BYTES"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created ApplicantResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.CVURL != resumes.EncodeDataURI("image/png", []byte("PNG-BYTES")) {
		t.Fatalf("expected exact data URI, got %q", created.CVURL)
	}
}

func seedBoard(t *testing.T, env *handlerEnv) {
	t.Helper()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for i, a := range sampleApplicants() {
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		a.Email = strings.ToLower(a.FirstName) + "@example.com"
		if err := env.repo.MemoryRepo.Create(t.Context(), a); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if a.Status != StatusNew {
			if err := env.repo.MemoryRepo.Update(t.Context(), a); err != nil {
				t.Fatalf("seed status: %v", err)
			}
		}
	}
}

func decodeList(t *testing.T, resp *httptest.ResponseRecorder) []ApplicantResponse {
	t.Helper()
	var out []ApplicantResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode list: %v (%s)", err, resp.Body.String())
	}
	return out
}

func TestAdminRoutesRequireToken(t *testing.T) {
	env := newHandlerEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/applicants", nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAdminListFilters(t *testing.T) {
	env := newHandlerEnv(t)
	seedBoard(t, env)

	all := decodeList(t, env.do(t, http.MethodGet, "/api/v1/admin/applicants", nil, ""))
	if len(all) != 4 || all[0].ID != "4" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if all[0].SyncState != "synced" {
		t.Fatalf("expected sync state, got %q", all[0].SyncState)
	}

	dupont := decodeList(t, env.do(t, http.MethodGet, "/api/v1/admin/applicants?status=ALL&q=dupo", nil, ""))
	if len(dupont) != 1 || dupont[0].ID != "1" {
		t.Fatalf("expected Jean Dupont, got %+v", dupont)
	}
	hired := decodeList(t, env.do(t, http.MethodGet, "/api/v1/admin/applicants?status=HIRED&q=dupo", nil, ""))
	if len(hired) != 0 {
		t.Fatalf("expected no match, got %+v", hired)
	}

	bad := env.do(t, http.MethodGet, "/api/v1/admin/applicants?status=FIRED", nil, "")
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", bad.Code)
	}
}

func TestAdminStats(t *testing.T) {
	env := newHandlerEnv(t)
	seedBoard(t, env)

	resp := env.do(t, http.MethodGet, "/api/v1/admin/applicants/stats", nil, "")
	var stats StatsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Total != 4 || stats.Hired != 1 || stats.ByStatus[0].Label != "Nouveau" || stats.ByStatus[0].Count != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAdminExport(t *testing.T) {
	env := newHandlerEnv(t)
	seedBoard(t, env)

	resp := env.do(t, http.MethodGet, "/api/v1/admin/applicants/export.xlsx?q=serv", nil, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if !strings.Contains(resp.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("missing attachment name")
	}
}

func TestAdminTriageAndDelete(t *testing.T) {
	env := newHandlerEnv(t)
	seedBoard(t, env)

	resp := env.do(t, http.MethodPatch, "/api/v1/admin/applicants/1", strings.NewReader(`{"status":"interviewing"}`), "application/json")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated ApplicantResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != StatusInterviewing || updated.Position != "Serveur" || updated.Email != "jean@example.com" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	resp = env.do(t, http.MethodPatch, "/api/v1/admin/applicants/1", strings.NewReader(`{}`), "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty edit, got %d", resp.Code)
	}
	resp = env.do(t, http.MethodPatch, "/api/v1/admin/applicants/1", strings.NewReader(`{"status":"FIRED"}`), "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.Code)
	}
	resp = env.do(t, http.MethodPatch, "/api/v1/admin/applicants/nope", strings.NewReader(`{"position":"Barman"}`), "application/json")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	resp = env.do(t, http.MethodDelete, "/api/v1/admin/applicants/1", nil, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	resp = env.do(t, http.MethodGet, "/api/v1/admin/applicants/1", nil, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestAdminTriageSurvivesStoreFailure(t *testing.T) {
	env := newHandlerEnv(t)
	seedBoard(t, env)
	env.repo.failUpdate = true
	env.repo.failDelete = true

	resp := env.do(t, http.MethodPatch, "/api/v1/admin/applicants/3", strings.NewReader(`{"status":"REJECTED"}`), "application/json")
	if resp.Code != http.StatusOK {
		t.Fatalf("store failures must not fail triage, got %d", resp.Code)
	}
	var updated ApplicantResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.SyncState != "unsynced" || updated.SyncError == "" {
		t.Fatalf("expected unsynced marker, got %+v", updated)
	}

	resp = env.do(t, http.MethodDelete, "/api/v1/admin/applicants/2", nil, "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("store failures must not fail delete, got %d", resp.Code)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/admin/sync", nil, "")
	var pending SyncResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(pending.Unsynced) != 1 || len(pending.PendingDeletions) != 1 {
		t.Fatalf("unexpected pending work: %+v", pending)
	}

	env.repo.failUpdate = false
	env.repo.failDelete = false
	resp = env.do(t, http.MethodPost, "/api/v1/admin/sync", nil, "")
	var synced SyncResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &synced); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if synced.Resolved != 2 || len(synced.Unsynced) != 0 || len(synced.PendingDeletions) != 0 {
		t.Fatalf("unexpected resync result: %+v", synced)
	}
}

func TestAdminResumeInlineAndText(t *testing.T) {
	env := newHandlerEnv(t)
	a := Applicant{
		ID: "inline", FirstName: "Ana", LastName: "Lopes", Position: "Barman",
		CVFileName: "notes.png", CVURL: resumes.EncodeDataURI("image/png", []byte("PNGDATA")),
		CreatedAt: time.Now(),
	}
	if err := env.repo.MemoryRepo.Create(t.Context(), a); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := env.do(t, http.MethodGet, "/api/v1/admin/applicants/inline/resume", nil, "")
	if resp.Code != http.StatusOK || resp.Body.String() != "PNGDATA" || resp.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected inline download: %d %q %s", resp.Code, resp.Body.String(), resp.Header().Get("Content-Type"))
	}

	resp = env.do(t, http.MethodGet, "/api/v1/admin/applicants/inline/resume/text", nil, "")
	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 for image resume, got %d", resp.Code)
	}
}

func TestAdminResumeExternalRedirects(t *testing.T) {
	env := newHandlerEnv(t)
	a := Applicant{ID: "ext", CVFileName: "cv.pdf", CVURL: "https://elsewhere.example.com/cv.pdf", CreatedAt: time.Now()}
	if err := env.repo.MemoryRepo.Create(t.Context(), a); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp := env.do(t, http.MethodGet, "/api/v1/admin/applicants/ext/resume", nil, "")
	if resp.Code != http.StatusFound || resp.Header().Get("Location") != a.CVURL {
		t.Fatalf("expected redirect, got %d %s", resp.Code, resp.Header().Get("Location"))
	}
}

func TestCatalog(t *testing.T) {
	env := newHandlerEnv(t)
	resp := env.do(t, http.MethodGet, "/api/v1/catalog", nil, "")
	var body struct {
		Positions    []string          `json:"positions"`
		StatusLabels map[string]string `json:"statusLabels"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Positions) == 0 || body.StatusLabels["HIRED"] != "Embauché" {
		t.Fatalf("unexpected catalog: %+v", body)
	}
}

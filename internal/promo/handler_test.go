package promo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newPromoRouter(t *testing.T, qrURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(newTestService(t, qrURL)).RegisterRoutes(r.Group("/admin"))
	return r
}

func TestQRLinkHandler(t *testing.T) {
	r := newPromoRouter(t, "")

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/admin/qr", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Target   string `json:"target"`
		ImageURL string `json:"imageUrl"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Target != "https://jobs.example.com/#/apply" || !strings.HasPrefix(body.ImageURL, DefaultQRServiceURL+"?size=300x300") {
		t.Fatalf("unexpected body: %+v", body)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/admin/qr?target=ftp://x", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestQRPanelDownload(t *testing.T) {
	qr := newQRServer(t)
	r := newPromoRouter(t, qr.URL+"/qr")

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/admin/qr.png", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, "sofia-recrutement-qrcode.png") {
		t.Fatalf("unexpected disposition: %q", got)
	}
	if resp.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected content type: %s", resp.Header().Get("Content-Type"))
	}
}

func TestFlyerHandlerReportsGenericFailure(t *testing.T) {
	qr := newQRServer(t)
	qr.fail.Store(true)
	r := newPromoRouter(t, qr.URL+"/qr")

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/flyer", strings.NewReader(`{"headline":"ON RECRUTE"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"render_failed"`) {
		t.Fatalf("expected generic render_failed, got %s", resp.Body.String())
	}
}

func TestFlyerDefaultsAndBackground(t *testing.T) {
	r := newPromoRouter(t, "")

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/admin/flyer/defaults", nil))
	var cfg FlyerConfig
	if err := json.Unmarshal(resp.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Headline != "NOUS RECRUTONS" || cfg.AccentColor != "#145A8B" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	resp = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/flyer/background", strings.NewReader(`{"prompt":"bokeh"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"backgroundImage":null`) {
		t.Fatalf("expected disabled generator response, got %d %s", resp.Code, resp.Body.String())
	}
}

package promo

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"recruit-backend/internal/resumes"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/telemetry"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type qrServer struct {
	*httptest.Server
	lastQuery atomic.Value
	fail      atomic.Bool
}

func newQRServer(t *testing.T) *qrServer {
	t.Helper()
	qr := pngBytes(t, 25, 25, color.Black)
	s := &qrServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/qr" {
			http.NotFound(w, r)
			return
		}
		s.lastQuery.Store(r.URL.RawQuery)
		if s.fail.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(qr)
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestService(t *testing.T, qrURL string) *Service {
	t.Helper()
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)
	cat, err := config.LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	return NewService(NewQRClient(qrURL, nil), nil, cat, "https://jobs.example.com/#/apply")
}

func TestQRURLMatchesPublicService(t *testing.T) {
	c := NewQRClient("", nil)
	got := c.URL(PanelQR("https://jobs.example.com/#/apply"))
	want := "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data=https%3A%2F%2Fjobs.example.com%2F%23%2Fapply&bgcolor=FFFFFF&color=061E3E&margin=10"
	if got != want {
		t.Fatalf("unexpected qr url:\n got %s\nwant %s", got, want)
	}

	flyer := c.URL(FlyerQR("https://x.example.com/a b"))
	if !strings.Contains(flyer, "size=250x250") || !strings.Contains(flyer, "color=000000") || !strings.Contains(flyer, "a%20b") {
		t.Fatalf("unexpected flyer qr url: %s", flyer)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{in: "#145A8B", want: color.RGBA{0x14, 0x5a, 0x8b, 0xff}},
		{in: "f97316", want: color.RGBA{0xf9, 0x73, 0x16, 0xff}},
		{in: "#fff", want: color.RGBA{0xff, 0xff, 0xff, 0xff}},
		{in: "#12345", wantErr: true},
		{in: "blue", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("%q: expected ErrInvalidInput, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: got %v %v", tt.in, got, err)
		}
	}
}

func TestWrapText(t *testing.T) {
	face := newFace(false, 20)
	lines := wrapText(face, "Rejoignez notre équipe passionnée. Scannez pour postuler !", textWidth(face, "Rejoignez notre équipe"))
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %v", lines)
	}
	if strings.Join(lines, " ") != "Rejoignez notre équipe passionnée. Scannez pour postuler !" {
		t.Fatalf("wrapping lost words: %v", lines)
	}
	if got := wrapText(face, "   ", 100); len(got) != 0 {
		t.Fatalf("expected no lines for blank text, got %v", got)
	}
}

func TestTargetDefaultsToFormURL(t *testing.T) {
	svc := newTestService(t, "")
	target, err := svc.Target("  ")
	if err != nil || target != "https://jobs.example.com/#/apply" {
		t.Fatalf("unexpected target %q %v", target, err)
	}
	if _, err := svc.Target("javascript:alert(1)"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFlyerPNG(t *testing.T) {
	qr := newQRServer(t)
	svc := newTestService(t, qr.URL+"/qr")

	data, err := svc.FlyerPNG(context.Background(), FlyerConfig{})
	if err != nil {
		t.Fatalf("FlyerPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode flyer: %v", err)
	}
	if b := img.Bounds(); b.Dx() != flyerWidth || b.Dy() != flyerHeight {
		t.Fatalf("unexpected flyer size: %v", b)
	}
	if r, g, b, _ := img.At(0, 0).RGBA(); r>>8 != 0xff || g>>8 != 0xff || b>>8 != 0xff {
		t.Fatalf("expected white top without background, got %v", img.At(0, 0))
	}
	if r, g, b, _ := img.At(0, flyerHeight-1).RGBA(); r>>8 > 2 || g>>8 > 2 || b>>8 > 2 {
		t.Fatalf("expected dark gradient at bottom, got %v", img.At(0, flyerHeight-1))
	}
	if q, _ := qr.lastQuery.Load().(string); !strings.Contains(q, "size=250x250") {
		t.Fatalf("expected flyer qr spec, got %q", q)
	}
}

func TestFlyerPNGDropsBrokenBackground(t *testing.T) {
	qr := newQRServer(t)
	svc := newTestService(t, qr.URL+"/qr")

	_, err := svc.FlyerPNG(context.Background(), FlyerConfig{BackgroundImage: qr.URL + "/missing.png?x=1", AccentColor: "#ef4444"})
	if err != nil {
		t.Fatalf("broken backgrounds must not fail the flyer: %v", err)
	}

	_, err = svc.FlyerPNG(context.Background(), FlyerConfig{BackgroundImage: "data:image/png;base64,!!!"})
	if err != nil {
		t.Fatalf("corrupt data uri must not fail the flyer: %v", err)
	}
}

func TestFlyerPNGUsesInlineBackground(t *testing.T) {
	qr := newQRServer(t)
	svc := newTestService(t, qr.URL+"/qr")
	red := resumes.EncodeDataURI("image/png", pngBytes(t, 40, 20, color.RGBA{R: 0xff, A: 0xff}))

	data, err := svc.FlyerPNG(context.Background(), FlyerConfig{BackgroundImage: red})
	if err != nil {
		t.Fatalf("FlyerPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, g, _, _ := img.At(0, 0).RGBA(); r>>8 < 0xf0 || g>>8 > 0x10 {
		t.Fatalf("expected red background at top, got %v", img.At(0, 0))
	}
}

func TestFlyerPNGFailsWhenQRUnavailable(t *testing.T) {
	qr := newQRServer(t)
	qr.fail.Store(true)
	svc := newTestService(t, qr.URL+"/qr")

	if _, err := svc.FlyerPNG(context.Background(), FlyerConfig{}); !errors.Is(err, ErrRender) {
		t.Fatalf("expected ErrRender, got %v", err)
	}
	if _, err := svc.FlyerPNG(context.Background(), FlyerConfig{AccentColor: "nope"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad color, got %v", err)
	}
}

func TestQRPanelPNG(t *testing.T) {
	qr := newQRServer(t)
	svc := newTestService(t, qr.URL+"/qr")

	data, err := svc.QRPanelPNG(context.Background(), "https://jobs.example.com/#/apply")
	if err != nil {
		t.Fatalf("QRPanelPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != panelWidth || img.Bounds().Dy() <= 192*scale {
		t.Fatalf("unexpected panel size: %v", img.Bounds())
	}
	if q, _ := qr.lastQuery.Load().(string); !strings.Contains(q, "color=061E3E") {
		t.Fatalf("expected panel qr colors, got %q", q)
	}
}

func TestGenerateBackgroundDisabled(t *testing.T) {
	svc := newTestService(t, "")
	uri, err := svc.GenerateBackground(context.Background(), "cozy italian restaurant")
	if err != nil || uri != "" {
		t.Fatalf("expected no background, got %q %v", uri, err)
	}
}

func TestLoadBackgroundRefusesInternalHosts(t *testing.T) {
	bg := pngBytes(t, 4, 4, color.White)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(bg)
	}))
	t.Cleanup(srv.Close)

	svc := NewService(nil, nil, config.Catalog{}, "https://jobs.example.com/#/apply")
	for _, ref := range []string{
		srv.URL + "/bg.png",
		"http://localhost/bg.png",
		"http://169.254.169.254/latest/meta-data",
		"http://[::1]/bg.png",
	} {
		if _, err := svc.loadBackground(context.Background(), ref); !errors.Is(err, ErrBlockedHost) {
			t.Fatalf("expected ErrBlockedHost for %s, got %v", ref, err)
		}
	}

	// The dialer refuses the address itself, whatever name led to it.
	client := publicOnlyClient(5 * time.Second)
	resp, err := client.Get(srv.URL + "/bg.png")
	if err == nil {
		resp.Body.Close()
		t.Fatalf("expected dial to loopback to be refused")
	}
	if !strings.Contains(err.Error(), ErrBlockedHost.Error()) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIsPublicAddr(t *testing.T) {
	cases := map[string]bool{
		"8.8.8.8":          true,
		"2606:4700::1111":  true,
		"127.0.0.1":        false,
		"10.1.2.3":         false,
		"192.168.0.10":     false,
		"172.16.5.4":       false,
		"100.64.0.1":       false,
		"169.254.169.254":  false,
		"::1":              false,
		"fd00::1":          false,
		"0.0.0.0":          false,
		"::ffff:127.0.0.1": false,
	}
	for raw, want := range cases {
		if got := isPublicAddr(netip.MustParseAddr(raw)); got != want {
			t.Errorf("isPublicAddr(%s) = %v, want %v", raw, got, want)
		}
	}
}

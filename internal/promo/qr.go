package promo

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// DefaultQRServiceURL is the public QR rendering endpoint.
const DefaultQRServiceURL = "https://api.qrserver.com/v1/create-qr-code/"

const maxImageBytes = 5 << 20

// ErrInvalidTarget means a QR target is not an absolute http(s) URL.
var ErrInvalidTarget = errors.New("qr target must be an absolute http(s) url")

// QRSpec parameterizes one QR image.
type QRSpec struct {
	Target     string
	Size       int
	Background string
	Foreground string
	Margin     int
}

// PanelQR is the dark-on-white code used on the downloadable panel.
func PanelQR(target string) QRSpec {
	return QRSpec{Target: target, Size: 300, Background: "FFFFFF", Foreground: "061E3E", Margin: 10}
}

// FlyerQR is the black-on-white code printed on flyers.
func FlyerQR(target string) QRSpec {
	return QRSpec{Target: target, Size: 250, Background: "FFFFFF", Foreground: "000000", Margin: 10}
}

// QRClient builds and fetches QR images from the remote service.
type QRClient struct {
	BaseURL    string
	httpClient *http.Client
}

// NewQRClient constructs a QRClient. An empty base URL uses the public service.
func NewQRClient(baseURL string, httpClient *http.Client) *QRClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultQRServiceURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &QRClient{BaseURL: baseURL, httpClient: httpClient}
}

// URL returns the image address for spec. The target is query-escaped.
func (c *QRClient) URL(spec QRSpec) string {
	size := strconv.Itoa(spec.Size)
	var b strings.Builder
	b.WriteString(c.BaseURL)
	if strings.Contains(c.BaseURL, "?") {
		b.WriteString("&")
	} else {
		b.WriteString("?")
	}
	b.WriteString("size=" + size + "x" + size)
	b.WriteString("&data=" + encodeComponent(spec.Target))
	b.WriteString("&bgcolor=" + spec.Background)
	b.WriteString("&color=" + spec.Foreground)
	b.WriteString("&margin=" + strconv.Itoa(spec.Margin))
	return b.String()
}

// Fetch downloads and decodes the QR image for spec.
func (c *QRClient) Fetch(ctx context.Context, spec QRSpec) (image.Image, error) {
	img, err := fetchImage(ctx, c.httpClient, c.URL(spec))
	if err != nil {
		return nil, fmt.Errorf("fetch qr: %w", err)
	}
	return img, nil
}

// ValidateTarget checks that target can be encoded into a scannable link.
func ValidateTarget(target string) error {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidTarget
	}
	return nil
}

func fetchImage(ctx context.Context, client *http.Client, rawURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image request returned %d", resp.StatusCode)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// encodeComponent escapes s for a query value with spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

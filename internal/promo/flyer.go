package promo

import (
	"image"
	"image/color"
	"strings"

	"recruit-backend/internal/shared/config"
)

// Render scale; layouts are written in CSS pixels and doubled for print.
const scale = 2

const (
	flyerWidth  = 500 * scale
	flyerHeight = 700 * scale
	panelWidth  = 320 * scale
)

var (
	navy     = color.RGBA{R: 0x06, G: 0x1e, B: 0x3e, A: 0xff}
	blue     = color.RGBA{R: 0x14, G: 0x5a, B: 0x8b, A: 0xff}
	gray     = color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
	white    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	cardGray = color.RGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}
)

// FlyerConfig is the editable content of a recruitment flyer. It is never stored.
type FlyerConfig struct {
	Headline        string `json:"headline"`
	Subtext         string `json:"subtext"`
	AccentColor     string `json:"accentColor"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	// Target overrides the link encoded in the QR code.
	Target string `json:"target,omitempty"`
}

// WithDefaults fills empty text fields from the catalog.
func (f FlyerConfig) WithDefaults(d config.FlyerDefaults) FlyerConfig {
	if strings.TrimSpace(f.Headline) == "" {
		f.Headline = d.Headline
	}
	if strings.TrimSpace(f.Subtext) == "" {
		f.Subtext = d.Subtext
	}
	if strings.TrimSpace(f.AccentColor) == "" {
		f.AccentColor = d.AccentColor
	}
	return f
}

// RenderFlyer composes the flyer: optional cover background under a dark
// gradient, the headline with an accent shadow and bar, then the subtext and
// a white QR card near the bottom.
func RenderFlyer(cfg FlyerConfig, accent color.RGBA, background, qr image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, flyerWidth, flyerHeight))
	fillRect(dst, dst.Bounds(), white)
	if background != nil {
		drawCover(dst, dst.Bounds(), background)
	}
	for y := 0; y < flyerHeight; y++ {
		alpha := uint8(255 * y / (flyerHeight - 1))
		fillRect(dst, image.Rect(0, y, flyerWidth, y+1), color.NRGBA{A: alpha})
	}

	pad := 40 * scale
	cx := flyerWidth / 2
	maxText := flyerWidth - 2*pad

	headFace := newFace(true, 60*scale)
	y := pad + 32*scale
	for _, line := range wrapText(headFace, strings.ToUpper(cfg.Headline), maxText) {
		y += headFace.Metrics().Ascent.Ceil()
		drawCentered(dst, headFace, accent, line, cx+4*scale, y+4*scale)
		drawCentered(dst, headFace, white, line, cx, y)
		y += headFace.Metrics().Descent.Ceil()
	}
	y += 8 * scale
	fillRect(dst, image.Rect(cx-48*scale, y, cx+48*scale, y+8*scale), accent)

	// Bottom block, laid out upwards from the card.
	qrSize := 160 * scale
	cardPad := 16 * scale
	captionFace := newFace(false, 12*scale)
	cardW := qrSize + 2*cardPad
	cardH := cardPad + qrSize + 8*scale + lineHeight(captionFace) + cardPad
	cardBottom := flyerHeight - pad - 32*scale
	card := image.Rect(cx-cardW/2, cardBottom-cardH, cx+cardW/2, cardBottom)
	fillRect(dst, card, white)
	if qr != nil {
		drawQR(dst, image.Rect(card.Min.X+cardPad, card.Min.Y+cardPad, card.Max.X-cardPad, card.Min.Y+cardPad+qrSize), qr)
	}
	drawCentered(dst, captionFace, gray, "SCANNEZ POUR POSTULER", cx,
		card.Min.Y+cardPad+qrSize+8*scale+captionFace.Metrics().Ascent.Ceil())

	subFace := newFace(false, 20*scale)
	lines := wrapText(subFace, cfg.Subtext, 384*scale)
	lh := lineHeight(subFace)
	base := card.Min.Y - 24*scale - (len(lines)-1)*lh - subFace.Metrics().Descent.Ceil()
	for i, line := range lines {
		drawCentered(dst, subFace, white, line, cx, base+i*lh)
	}
	return dst
}

// RenderQRPanel composes the printable QR panel: title, season, target link,
// the code itself and a call to action.
func RenderQRPanel(text config.QRPanelText, target string, qr image.Image) *image.RGBA {
	pad := 16 * scale
	qrSize := 192 * scale
	titleFace := newFace(true, 24*scale)
	subFace := newFace(true, 14*scale)
	linkFace := newFace(false, 10*scale)
	captionFace := newFace(true, 14*scale)
	footFace := newFace(false, 12*scale)

	linkLines := wrapText(linkFace, target, panelWidth-2*pad)
	height := pad +
		lineHeight(titleFace) + 4*scale +
		lineHeight(subFace) + 12*scale +
		len(linkLines)*lineHeight(linkFace) + 12*scale +
		qrSize + 2*pad + 12*scale +
		lineHeight(captionFace) + 4*scale +
		lineHeight(footFace) + pad

	dst := image.NewRGBA(image.Rect(0, 0, panelWidth, height))
	fillRect(dst, dst.Bounds(), white)
	cx := panelWidth / 2

	y := pad
	y += titleFace.Metrics().Ascent.Ceil()
	drawCentered(dst, titleFace, navy, text.Title, cx, y)
	y += titleFace.Metrics().Descent.Ceil() + 4*scale

	y += subFace.Metrics().Ascent.Ceil()
	drawCentered(dst, subFace, blue, strings.ToUpper(text.Subtitle), cx, y)
	y += subFace.Metrics().Descent.Ceil() + 12*scale

	for _, line := range linkLines {
		y += linkFace.Metrics().Ascent.Ceil()
		drawCentered(dst, linkFace, gray, line, cx, y)
		y += linkFace.Metrics().Descent.Ceil()
	}
	y += 12 * scale

	frame := image.Rect(cx-qrSize/2-pad, y, cx+qrSize/2+pad, y+qrSize+2*pad)
	fillRect(dst, frame, cardGray)
	fillRect(dst, frame.Inset(2*scale), white)
	if qr != nil {
		drawQR(dst, image.Rect(frame.Min.X+pad, frame.Min.Y+pad, frame.Max.X-pad, frame.Max.Y-pad), qr)
	}
	y = frame.Max.Y + 12*scale

	y += captionFace.Metrics().Ascent.Ceil()
	drawCentered(dst, captionFace, navy, text.Caption, cx, y)
	y += captionFace.Metrics().Descent.Ceil() + 4*scale

	y += footFace.Metrics().Ascent.Ceil()
	drawCentered(dst, footFace, gray, text.Footer, cx, y)
	return dst
}

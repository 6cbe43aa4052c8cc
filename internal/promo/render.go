package promo

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontsErr    error
)

// newFace returns a Go font face at size points. If the embedded fonts
// cannot be parsed it degrades to the fixed 7x13 bitmap face.
func newFace(bold bool, size float64) font.Face {
	fontsOnce.Do(func() {
		regularFont, fontsErr = opentype.Parse(goregular.TTF)
		if fontsErr != nil {
			return
		}
		boldFont, fontsErr = opentype.Parse(gobold.TTF)
	})
	if fontsErr != nil {
		return basicfont.Face7x13
	}
	f := regularFont
	if bold {
		f = boldFont
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// ParseHexColor accepts #RGB or #RRGGBB, with or without the leading hash.
func ParseHexColor(raw string) (color.RGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: color %q", ErrInvalidInput, raw)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func fillRect(dst xdraw.Image, r image.Rectangle, c color.Color) {
	xdraw.Draw(dst, r, image.NewUniform(c), image.Point{}, xdraw.Over)
}

func lineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil()
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// drawCentered draws s with its baseline at y, centered on x.
func drawCentered(dst xdraw.Image, face font.Face, c color.Color, s string, x, y int) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	d.Dot = fixed.P(x-textWidth(face, s)/2, y)
	d.DrawString(s)
}

// wrapText breaks s into lines no wider than maxWidth. A single word wider
// than maxWidth gets a line of its own.
func wrapText(face font.Face, s string, maxWidth int) []string {
	words := strings.Fields(s)
	var lines []string
	var cur string
	for _, w := range words {
		next := w
		if cur != "" {
			next = cur + " " + w
		}
		if cur != "" && textWidth(face, next) > maxWidth {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur = next
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// drawCover scales src to fill dst's rect r, cropping the overflow.
func drawCover(dst xdraw.Image, r image.Rectangle, src image.Image) {
	sb := src.Bounds()
	if sb.Empty() || r.Empty() {
		return
	}
	sw, sh := sb.Dx(), sb.Dy()
	dw, dh := r.Dx(), r.Dy()
	crop := sb
	if sw*dh > sh*dw {
		w := sh * dw / dh
		crop.Min.X = sb.Min.X + (sw-w)/2
		crop.Max.X = crop.Min.X + w
	} else {
		h := sw * dh / dw
		crop.Min.Y = sb.Min.Y + (sh-h)/2
		crop.Max.Y = crop.Min.Y + h
	}
	xdraw.ApproxBiLinear.Scale(dst, r, src, crop, xdraw.Src, nil)
}

// drawQR scales a QR code without smoothing so modules stay sharp.
func drawQR(dst xdraw.Image, r image.Rectangle, qr image.Image) {
	xdraw.NearestNeighbor.Scale(dst, r, qr, qr.Bounds(), xdraw.Over, nil)
}

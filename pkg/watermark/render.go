package watermark

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Renderer draws watermark text directly onto an image buffer.
type Renderer struct {
	fontPath   string
	candidates []string
	parsed     *opentype.Font
	log        *zap.Logger
}

// NewRenderer returns a Renderer that prefers the font at fontPath when it is
// set and loadable.
func NewRenderer(fontPath string, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{fontPath: fontPath, candidates: systemFonts, log: log}
}

// Render draws text onto img in place and returns img together with the
// baseline origin used. The font face is released before returning.
func (r *Renderer) Render(img *image.NRGBA, text string, cfg Config) (*image.NRGBA, image.Point, error) {
	if img == nil {
		return nil, image.Point{}, errors.New("nil image")
	}
	if cfg.FontSize <= 0 {
		return img, image.Point{}, fmt.Errorf("font size must be positive, got %d", cfg.FontSize)
	}

	face, err := r.openFace(cfg.FontSize, text)
	if err != nil {
		return img, image.Point{}, fmt.Errorf("open font face: %w", err)
	}
	defer face.Close()

	textW := font.MeasureString(face, text).Ceil()
	textH := face.Metrics().Height.Ceil()
	b := img.Bounds()
	origin := Place(b.Dx(), b.Dy(), textW, textH, cfg.Position)

	r.log.Debug("drawing watermark",
		zap.String("text", text),
		zap.Int("text_width", textW),
		zap.Int("text_height", textH),
		zap.Int("x", origin.X),
		zap.Int("y", origin.Y))

	if cfg.Color.NRGBA().A == 0 {
		r.log.Warn("watermark color is fully transparent, text will not be visible")
	}
	if drawn, _ := font.BoundString(face, text); !textRect(drawn, origin).Overlaps(b) {
		r.log.Warn("watermark falls outside the image",
			zap.Int("x", origin.X), zap.Int("y", origin.Y),
			zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(cfg.Color.NRGBA()),
		Face: face,
		Dot:  fixed.P(b.Min.X+origin.X, b.Min.Y+origin.Y),
	}
	d.DrawString(text)

	return img, origin, nil
}

// textRect converts glyph bounds relative to the baseline origin into image
// coordinates.
func textRect(bounds fixed.Rectangle26_6, origin image.Point) image.Rectangle {
	return image.Rect(
		bounds.Min.X.Floor(), bounds.Min.Y.Floor(),
		bounds.Max.X.Ceil(), bounds.Max.Y.Ceil(),
	).Add(origin)
}

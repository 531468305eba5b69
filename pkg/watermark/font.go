package watermark

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// systemFonts lists bold sans-serif faces that carry CJK glyphs, so the
// 年/月/日 characters of the date render. The embedded Go Bold font is the last
// resort and only covers Latin.
var systemFonts = []string{
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Bold.ttc",
	"/usr/share/fonts/noto-cjk/NotoSansCJK-Bold.ttc",
	"/usr/share/fonts/google-noto-cjk/NotoSansCJK-Bold.ttc",
	"/usr/share/fonts/opentype/noto/NotoSansCJKsc-Bold.otf",
	"/System/Library/Fonts/STHeiti Medium.ttc",
	"/System/Library/Fonts/PingFang.ttc",
	"C:\\Windows\\Fonts\\msyhbd.ttc",
	"C:\\Windows\\Fonts\\simhei.ttf",
}

// loadFont parses a .ttf/.otf file, or the first face of a .ttc/.otc
// collection.
func loadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fnt, err := opentype.Parse(data)
	if err == nil {
		return fnt, nil
	}
	coll, cerr := opentype.ParseCollection(data)
	if cerr != nil {
		return nil, err
	}
	if coll.NumFonts() == 0 {
		return nil, fmt.Errorf("font collection %q is empty", path)
	}
	return coll.Font(0)
}

// covers reports whether fnt maps every non-space rune of text to a glyph.
func covers(fnt *opentype.Font, text string) bool {
	var buf sfnt.Buffer
	for _, c := range text {
		if unicode.IsSpace(c) {
			continue
		}
		if idx, err := fnt.GlyphIndex(&buf, c); err != nil || idx == 0 {
			return false
		}
	}
	return true
}

// font resolves the typeface once per Renderer, for the first text it draws:
// the configured path, then the installed system candidates, then Go Bold.
// Faces missing glyphs for text are passed over. When none covers it the
// configured font, or else Go Bold, is used anyway.
func (r *Renderer) font(text string) (*opentype.Font, error) {
	if r.parsed != nil {
		return r.parsed, nil
	}
	var fallback *opentype.Font
	if strings.TrimSpace(r.fontPath) != "" {
		fnt, err := loadFont(r.fontPath)
		switch {
		case err != nil:
			r.log.Warn("failed to load font, trying system fonts", zap.String("font", r.fontPath), zap.Error(err))
		case covers(fnt, text):
			r.parsed = fnt
			return fnt, nil
		default:
			r.log.Warn("font lacks glyphs for watermark text, trying system fonts", zap.String("font", r.fontPath))
			fallback = fnt
		}
	}
	for _, p := range r.candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		fnt, err := loadFont(p)
		if err != nil {
			r.log.Warn("failed to load system font", zap.String("font", p), zap.Error(err))
			continue
		}
		if !covers(fnt, text) {
			r.log.Debug("system font lacks glyphs for watermark text", zap.String("font", p))
			continue
		}
		r.log.Debug("using system font", zap.String("font", p))
		r.parsed = fnt
		return fnt, nil
	}
	if fallback == nil {
		fnt, err := opentype.Parse(gobold.TTF)
		if err != nil {
			return nil, err
		}
		fallback = fnt
		r.log.Debug("using embedded Go Bold font")
	}
	if !covers(fallback, text) {
		r.log.Warn("no font covers the watermark text, missing glyphs render as boxes; pass --font with a CJK font",
			zap.String("text", text))
	}
	r.parsed = fallback
	return fallback, nil
}

func (r *Renderer) openFace(size int, text string) (font.Face, error) {
	fnt, err := r.font(text)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

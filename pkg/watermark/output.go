package watermark

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	outputDirSuffix  = "_watermark"
	outputNameSuffix = "_watermarked"
	defaultFormat    = "jpg"
)

// jpegBackground fills transparent areas when the target format has no alpha.
var jpegBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// OutputTarget is where a watermarked image is written.
type OutputTarget struct {
	Dir      string
	Filename string
	// Format is the lowercase extension handed to the encoder.
	Format string
}

func (t OutputTarget) Path() string {
	return filepath.Join(t.Dir, t.Filename)
}

// WriteOptions tunes the encoder.
type WriteOptions struct {
	JPEGQuality int
}

// ResolveOutput derives the target for sourcePath: a directory named
// "<parent>_watermark" next to the source's parent, holding
// "<base>_watermarked.<ext>".
func ResolveOutput(sourcePath string) (OutputTarget, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return OutputTarget{}, err
	}
	parent := filepath.Dir(abs)
	base, ext := SplitExtension(filepath.Base(abs))

	return OutputTarget{
		Dir:      filepath.Join(filepath.Dir(parent), filepath.Base(parent)+outputDirSuffix),
		Filename: base + outputNameSuffix + "." + ext,
		Format:   ext,
	}, nil
}

// SplitExtension splits name at its last dot. The extension is lowercased.
// A dot in first or last position does not count: the whole name is the base
// and the extension defaults to jpg.
func SplitExtension(name string) (base, ext string) {
	dot := strings.LastIndex(name, ".")
	if dot > 0 && dot < len(name)-1 {
		return name[:dot], strings.ToLower(name[dot+1:])
	}
	return name, defaultFormat
}

// WriteImage creates the target directory if needed and encodes img in the
// target's format, overwriting any previous output. Unsupported formats fail
// with ErrEncode before anything is written.
func WriteImage(t OutputTarget, img image.Image, opts WriteOptions) (err error) {
	format, err := imaging.FormatFromExtension(t.Format)
	if err != nil {
		return fmt.Errorf("%w: format %q: %w", ErrEncode, t.Format, err)
	}
	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	out, err := os.Create(t.Path())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrWrite, cerr)
		}
	}()

	if format == imaging.JPEG && !opaque(img) {
		img = flattenToRGB(img, jpegBackground)
	}

	quality := opts.JPEGQuality
	if quality <= 0 {
		quality = 90
	}
	if err := imaging.Encode(out, img, format, imaging.JPEGQuality(clampInt(quality, 1, 100))); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func flattenToRGB(img image.Image, bg color.NRGBA) image.Image {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, &image.Uniform{C: bg}, image.Point{}, draw.Src)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Over)
	return rgba
}

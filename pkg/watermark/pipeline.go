package watermark

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// DateExtractor reports the capture time embedded in an image file.
type DateExtractor interface {
	Extract(path string) (time.Time, bool, error)
}

// Pipeline stamps one image with its capture date.
type Pipeline struct {
	Extractor  DateExtractor
	Text       TextResolver
	Renderer   *Renderer
	Write      WriteOptions
	AutoOrient bool

	log *zap.Logger
}

// Result describes a finished run.
type Result struct {
	Text     string
	Captured bool
	Origin   image.Point
	Target   OutputTarget
}

func NewPipeline(extractor DateExtractor, renderer *Renderer, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		Extractor: extractor,
		Renderer:  renderer,
		log:       log,
	}
}

// CheckInput verifies that path names an existing regular file.
func CheckInput(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no image path given", ErrInput)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInput, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrInput, path)
	}
	return nil
}

// Run watermarks the image at path with cfg and writes the result next to it.
// The source file is never modified. Any failure aborts the run.
func (p *Pipeline) Run(path string, cfg Config) (*Result, error) {
	if err := CheckInput(path); err != nil {
		return nil, err
	}

	captured, ok, err := p.Extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataRead, err)
	}
	text := p.Text.Resolve(captured, ok)
	if !ok {
		p.log.Info("no capture date found, using current date", zap.String("text", text))
	}

	src, err := imaging.Open(path, imaging.AutoOrientation(p.AutoOrient))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	// The clone is the only reference to the buffer from here on.
	img := imaging.Clone(src)
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}

	img, origin, err := p.Renderer.Render(img, text, cfg)
	if err != nil {
		return nil, err
	}

	target, err := ResolveOutput(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := WriteImage(target, img, p.Write); err != nil {
		return nil, err
	}

	p.log.Info("watermark applied",
		zap.String("source", path),
		zap.String("output", target.Path()),
		zap.String("text", text),
		zap.Int("x", origin.X),
		zap.Int("y", origin.Y))

	return &Result{Text: text, Captured: ok, Origin: origin, Target: target}, nil
}

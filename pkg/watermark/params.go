package watermark

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Input holds the raw, unvalidated watermark parameters as typed by the user.
// Empty fields mean "use the default".
type Input struct {
	FontSize string
	Color    string
	Position string
}

// ParseConfig turns raw input into a Config. Malformed fields never fail the
// run: each one is logged and replaced by its default independently.
func ParseConfig(in Input, log *zap.Logger) Config {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := DefaultConfig()

	if raw := strings.TrimSpace(in.FontSize); raw != "" {
		size, err := ParseFontSize(raw)
		if err != nil {
			log.Warn("invalid font size, using default",
				zap.String("input", raw), zap.Int("default", DefaultFontSize), zap.Error(err))
		} else {
			cfg.FontSize = size
		}
	}

	if raw := strings.TrimSpace(in.Color); raw != "" {
		c, err := ParseColor(raw)
		if err != nil {
			log.Warn("invalid color, using default",
				zap.String("input", raw), zap.String("default", "255,255,255,128"), zap.Error(err))
		} else {
			cfg.Color = c
		}
	}

	if raw := strings.TrimSpace(in.Position); raw != "" {
		p, err := ParsePosition(raw)
		if err != nil {
			log.Warn("invalid position, using bottom-right anchor",
				zap.String("input", raw), zap.Error(err))
		} else {
			cfg.Position = &p
		}
	}

	return cfg
}

// ParseFontSize parses a strictly positive integer.
func ParseFontSize(raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("font size must be positive, got %d", v)
	}
	return v, nil
}

// ParseColor parses "r,g,b,a". Channel values are not range checked.
func ParseColor(raw string) (Color, error) {
	vals, err := parseInts(raw, 4)
	if err != nil {
		return Color{}, err
	}
	return Color{R: vals[0], G: vals[1], B: vals[2], A: vals[3]}, nil
}

// ParsePosition parses "x,y". Negative and off-canvas coordinates are allowed.
func ParsePosition(raw string) (image.Point, error) {
	vals, err := parseInts(raw, 2)
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(vals[0], vals[1]), nil
}

func parseInts(raw string, n int) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("empty input")
	}
	parts := strings.Split(raw, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated integers, got %d fields", n, len(parts))
	}
	vals := make([]int, n)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid integer: %q", p)
		}
		vals[i] = v
	}
	return vals, nil
}

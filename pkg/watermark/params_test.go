package watermark

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseConfig_EmptyUsesDefaultsSilently(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := ParseConfig(Input{}, zap.New(core))

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Nil(t, cfg.Position)
	assert.Zero(t, logs.Len())
}

func TestParseConfig_Valid(t *testing.T) {
	cfg := ParseConfig(Input{FontSize: "48", Color: " 0, 10 ,20,255 ", Position: "15,-7"}, nil)

	assert.Equal(t, 48, cfg.FontSize)
	assert.Equal(t, Color{R: 0, G: 10, B: 20, A: 255}, cfg.Color)
	require.NotNil(t, cfg.Position)
	assert.Equal(t, image.Pt(15, -7), *cfg.Position)
}

func TestParseConfig_FontSizeFallback(t *testing.T) {
	for _, raw := range []string{"abc", "12.5", "0", "-3", "1e3"} {
		t.Run(raw, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			cfg := ParseConfig(Input{FontSize: raw}, zap.New(core))

			assert.Equal(t, DefaultFontSize, cfg.FontSize)
			assert.Equal(t, 1, logs.FilterMessage("invalid font size, using default").Len())
		})
	}
}

func TestParseConfig_ColorFallback(t *testing.T) {
	for _, raw := range []string{"255,255,255", "1,2,3,4,5", "1,2,x,4", "red", "1,,3,4"} {
		t.Run(raw, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			cfg := ParseConfig(Input{Color: raw}, zap.New(core))

			assert.Equal(t, DefaultColor, cfg.Color)
			assert.Equal(t, 1, logs.FilterMessage("invalid color, using default").Len())
		})
	}
}

func TestParseConfig_ColorOutOfRangePassesThrough(t *testing.T) {
	cfg := ParseConfig(Input{Color: "300,0,0,0"}, nil)

	assert.Equal(t, Color{R: 300, G: 0, B: 0, A: 0}, cfg.Color)
}

func TestParseConfig_PositionFallback(t *testing.T) {
	for _, raw := range []string{"10", "1,2,3", "a,b", "10;20"} {
		t.Run(raw, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			cfg := ParseConfig(Input{Position: raw}, zap.New(core))

			assert.Nil(t, cfg.Position)
			assert.Equal(t, 1, logs.FilterMessage("invalid position, using bottom-right anchor").Len())
		})
	}
}

func TestParseConfig_FieldsIndependent(t *testing.T) {
	cfg := ParseConfig(Input{FontSize: "oops", Color: "1,2,3,4", Position: "nope"}, nil)

	assert.Equal(t, DefaultFontSize, cfg.FontSize)
	assert.Equal(t, Color{R: 1, G: 2, B: 3, A: 4}, cfg.Color)
	assert.Nil(t, cfg.Position)
}

func TestColor_NRGBASaturates(t *testing.T) {
	c := Color{R: 300, G: -5, B: 128, A: 256}.NRGBA()

	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(0), c.G)
	assert.Equal(t, uint8(128), c.B)
	assert.Equal(t, uint8(255), c.A)
}

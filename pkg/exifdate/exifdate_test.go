package exifdate

import (
	"bufio"
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"datemark/pkg/exifdate/exiftest"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestExtract_DateTimeOriginal(t *testing.T) {
	data, err := exiftest.JPEG(32, 16, "2023:05:17 14:22:01")
	require.NoError(t, err)
	p := writeFile(t, "photo.jpg", data)

	got, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 5, 17, 14, 22, 1, 0, time.Local), got)
}

func TestExtract_DashedLayout(t *testing.T) {
	data, err := exiftest.JPEG(32, 16, "2021-12-03 08:00:00")
	require.NoError(t, err)
	p := writeFile(t, "photo.jpg", data)

	got, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2021, got.Year())
	assert.Equal(t, time.December, got.Month())
	assert.Equal(t, 3, got.Day())
}

func TestExtract_NoExifSegment(t *testing.T) {
	data, err := exiftest.JPEG(32, 16, "")
	require.NoError(t, err)
	p := writeFile(t, "plain.jpg", data)

	_, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtract_UnparsableValueIsAbsent(t *testing.T) {
	data, err := exiftest.JPEG(32, 16, "sometime last summer")
	require.NoError(t, err)
	p := writeFile(t, "photo.jpg", data)

	core, logs := observer.New(zapcore.WarnLevel)
	_, ok, err := NewExtractor(zap.New(core)).Extract(p)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("unparsable DateTimeOriginal").Len())
}

func TestExtract_PNGWithoutExifChunk(t *testing.T) {
	data, err := exiftest.PNG(4, 4, "")
	require.NoError(t, err)
	p := writeFile(t, "shot.png", data)

	_, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtract_PNGExifChunk(t *testing.T) {
	data, err := exiftest.PNG(4, 4, "2023:05:17 14:22:01")
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	p := writeFile(t, "shot.png", data)

	got, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 5, 17, 14, 22, 1, 0, time.Local), got)
}

func TestExtract_WebPExifChunk(t *testing.T) {
	p := writeFile(t, "shot.webp", exiftest.WebP("2023:05:17 14:22:01"))

	got, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 5, 17, 14, 22, 1, 0, time.Local), got)
}

func TestExtract_WebPWithoutExifChunk(t *testing.T) {
	p := writeFile(t, "shot.webp", exiftest.WebP(""))

	_, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtract_UnknownContainer(t *testing.T) {
	p := writeFile(t, "notes.bmp", []byte("BM not really a bitmap"))

	_, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtract_EmptyFile(t *testing.T) {
	p := writeFile(t, "empty.jpg", nil)

	_, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtract_CorruptContainer(t *testing.T) {
	data, err := exiftest.CorruptJPEG(32, 16)
	require.NoError(t, err)
	p := writeFile(t, "broken.jpg", data)

	_, ok, err := NewExtractor(nil).Extract(p)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestExtract_MissingFile(t *testing.T) {
	_, _, err := NewExtractor(nil).Extract(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseTime_TrimsNul(t *testing.T) {
	got, err := parseTime("2020:02:29 00:00:00\x00\x00")
	require.NoError(t, err)
	assert.Equal(t, 29, got.Day())
}

func TestExtract_XMPOnlyIsAbsent(t *testing.T) {
	data, err := exiftest.XMPJPEG(32, 16)
	require.NoError(t, err)
	p := writeFile(t, "xmp.jpg", data)

	_, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtract_XMPBeforeExif(t *testing.T) {
	data, err := exiftest.XMPThenExifJPEG(32, 16, "2023:05:17 14:22:01")
	require.NoError(t, err)
	p := writeFile(t, "xmp-exif.jpg", data)

	got, ok, err := NewExtractor(nil).Extract(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 5, 17, 14, 22, 1, 0, time.Local), got)
}

func TestJPEGExif(t *testing.T) {
	withExif, err := exiftest.JPEG(8, 8, "2023:05:17 00:00:00")
	require.NoError(t, err)
	plain, err := exiftest.JPEG(8, 8, "")
	require.NoError(t, err)
	xmpFirst, err := exiftest.XMPThenExifJPEG(8, 8, "2023:05:17 00:00:00")
	require.NoError(t, err)

	read := func(b []byte) []byte { return jpegExif(bufio.NewReader(bytes.NewReader(b))) }

	assert.True(t, bytes.HasPrefix(read(withExif), []byte("Exif\x00\x00II*\x00")))
	assert.Equal(t, read(withExif), read(xmpFirst))
	assert.Nil(t, read(plain))
	assert.Nil(t, read([]byte{0xFF, 0xD8, 0xFF}))
	assert.Nil(t, read([]byte{0xFF, 0xD8, 0x00, 0x00}))
}

func TestReadChunk_TooLarge(t *testing.T) {
	_, err := readChunk(bytes.NewReader(nil), maxPayload+1)
	assert.Error(t, err)
}

// Package exifdate reads the original capture timestamp embedded in an image.
package exifdate

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"
)

// Layouts tried, in order, when parsing a DateTimeOriginal value.
var layouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02",
}

// Extractor looks up the EXIF DateTimeOriginal tag of an image file.
type Extractor struct {
	log *zap.Logger
}

func NewExtractor(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log}
}

// maxPayload bounds the EXIF block read from a PNG or WebP chunk. JPEG
// segments are limited to 64 KiB by their length field.
const maxPayload = 16 << 20

// Extract returns the capture time of the image at path. ok is false when the
// file carries no EXIF block, the tag is missing, or its value cannot be
// parsed. An error is returned only when the file cannot be read or its EXIF
// block is corrupt.
func (e *Extractor) Extract(path string) (t time.Time, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header, err := br.Peek(12)
	if err != nil && !errors.Is(err, io.EOF) {
		return time.Time{}, false, fmt.Errorf("read header: %w", err)
	}

	var payload []byte
	switch {
	case isTIFF(header):
		payload, err = io.ReadAll(br)
	case isJPEG(header):
		payload = jpegExif(br)
	case isPNG(header):
		payload, err = pngExif(br)
	case isWebP(header):
		payload, err = webpExif(br)
	default:
		e.log.Debug("container has no exif support", zap.String("path", path))
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read exif %s: %w", path, err)
	}
	if len(payload) == 0 {
		e.log.Debug("no exif block", zap.String("path", path))
		return time.Time{}, false, nil
	}

	x, err := exif.Decode(bytes.NewReader(payload))
	if err != nil {
		switch {
		case errors.Is(err, io.EOF):
			e.log.Debug("no exif block", zap.String("path", path))
			return time.Time{}, false, nil
		case exif.IsCriticalError(err) || x == nil:
			return time.Time{}, false, fmt.Errorf("decode exif: %w", err)
		}
		e.log.Warn("exif partially decoded", zap.String("path", path), zap.Error(err))
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, false, nil
	}
	raw, err := tag.StringVal()
	if err != nil {
		e.log.Warn("DateTimeOriginal is not a string", zap.String("path", path), zap.Error(err))
		return time.Time{}, false, nil
	}
	t, err = parseTime(raw)
	if err != nil {
		e.log.Warn("unparsable DateTimeOriginal", zap.String("path", path), zap.String("value", raw))
		return time.Time{}, false, nil
	}
	return t, true, nil
}

var (
	exifIdent    = []byte("Exif\x00\x00")
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
)

func isTIFF(header []byte) bool {
	return bytes.HasPrefix(header, []byte("II*\x00")) ||
		bytes.HasPrefix(header, []byte("MM\x00*"))
}

func isJPEG(header []byte) bool {
	return bytes.HasPrefix(header, []byte{0xFF, 0xD8})
}

func isPNG(header []byte) bool {
	return bytes.HasPrefix(header, pngSignature)
}

func isWebP(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WEBP"))
}

// jpegExif walks the marker segments of a JPEG stream up to the start of scan
// and returns the first APP1 payload that begins with the Exif identifier.
// Other APP1 segments, such as XMP, are skipped. A stream that ends early or
// loses marker sync has no EXIF.
func jpegExif(br *bufio.Reader) []byte {
	if _, err := br.Discard(2); err != nil {
		return nil
	}
	for {
		b, err := br.ReadByte()
		if err != nil || b != 0xFF {
			return nil
		}
		marker, err := br.ReadByte()
		for err == nil && marker == 0xFF {
			marker, err = br.ReadByte()
		}
		if err != nil {
			return nil
		}
		switch {
		case marker == 0x01, marker >= 0xD0 && marker <= 0xD8:
			continue
		case marker == 0xD9, marker == 0xDA:
			return nil
		}

		var size [2]byte
		if _, err := io.ReadFull(br, size[:]); err != nil {
			return nil
		}
		n := int(binary.BigEndian.Uint16(size[:])) - 2
		if n < 0 {
			return nil
		}
		if marker == 0xE1 && n >= len(exifIdent) {
			if id, err := br.Peek(len(exifIdent)); err == nil && bytes.Equal(id, exifIdent) {
				seg := make([]byte, n)
				if _, err := io.ReadFull(br, seg); err != nil {
					return nil
				}
				return seg
			}
		}
		if _, err := br.Discard(n); err != nil {
			return nil
		}
	}
}

// pngExif walks the chunks of a PNG stream and returns the eXIf chunk data,
// a raw TIFF block. The walk stops at IEND or at the end of the stream.
func pngExif(br *bufio.Reader) ([]byte, error) {
	if _, err := br.Discard(len(pngSignature)); err != nil {
		return nil, nil
	}
	var head [8]byte
	for {
		if _, err := io.ReadFull(br, head[:]); err != nil {
			return nil, nil
		}
		n := int64(binary.BigEndian.Uint32(head[:4]))
		switch string(head[4:]) {
		case "IEND":
			return nil, nil
		case "eXIf":
			return readChunk(br, n)
		}
		// data plus CRC
		if _, err := io.CopyN(io.Discard, br, n+4); err != nil {
			return nil, nil
		}
	}
}

// webpExif walks the chunks of a RIFF/WEBP stream and returns the EXIF chunk
// data. Chunks are padded to an even length.
func webpExif(br *bufio.Reader) ([]byte, error) {
	if _, err := br.Discard(12); err != nil {
		return nil, nil
	}
	var head [8]byte
	for {
		if _, err := io.ReadFull(br, head[:]); err != nil {
			return nil, nil
		}
		n := int64(binary.LittleEndian.Uint32(head[4:]))
		if string(head[:4]) == "EXIF" {
			return readChunk(br, n)
		}
		if _, err := io.CopyN(io.Discard, br, n+n&1); err != nil {
			return nil, nil
		}
	}
}

// readChunk reads an n byte EXIF chunk. A chunk cut short by the end of the
// stream counts as absent.
func readChunk(r io.Reader, n int64) ([]byte, error) {
	if n > maxPayload {
		return nil, fmt.Errorf("exif chunk of %d bytes exceeds %d", n, maxPayload)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, nil
	}
	return data, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse exif time: %q", s)
}

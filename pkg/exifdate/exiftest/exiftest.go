// Package exiftest builds small image fixtures with hand-made EXIF blocks.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
)

const (
	tagExifIFDPointer   = 0x8769
	tagDateTimeOriginal = 0x9003

	typeASCII = 2
	typeLong  = 4
)

// JPEG encodes a solid gray width x height image. When dateTimeOriginal is not
// empty an APP1 segment holding it as EXIF DateTimeOriginal is inserted right
// after SOI.
func JPEG(width, height int, dateTimeOriginal string) ([]byte, error) {
	plain, err := plainJPEG(width, height)
	if err != nil {
		return nil, err
	}
	if dateTimeOriginal == "" {
		return plain, nil
	}
	return splice(plain, append([]byte("Exif\x00\x00"), tiffWithDate(dateTimeOriginal)...))
}

// CorruptJPEG returns a decodable JPEG whose EXIF segment has an invalid TIFF
// header.
func CorruptJPEG(width, height int) ([]byte, error) {
	plain, err := plainJPEG(width, height)
	if err != nil {
		return nil, err
	}
	return splice(plain, []byte("Exif\x00\x00XX\x00\x00garbage-garbage"))
}

// XMPJPEG returns a JPEG whose only APP1 segment holds an XMP packet.
func XMPJPEG(width, height int) ([]byte, error) {
	plain, err := plainJPEG(width, height)
	if err != nil {
		return nil, err
	}
	return splice(plain, []byte(xmpPacket))
}

// XMPThenExifJPEG returns a JPEG with an XMP APP1 segment followed by an EXIF
// APP1 segment holding dateTimeOriginal.
func XMPThenExifJPEG(width, height int, dateTimeOriginal string) ([]byte, error) {
	withExif, err := JPEG(width, height, dateTimeOriginal)
	if err != nil {
		return nil, err
	}
	return splice(withExif, []byte(xmpPacket))
}

// PNG encodes a solid gray image. When dateTimeOriginal is not empty an eXIf
// chunk holding it is inserted right after IHDR.
func PNG(width, height int, dateTimeOriginal string) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray(width, height)); err != nil {
		return nil, err
	}
	plain := buf.Bytes()
	if dateTimeOriginal == "" {
		return plain, nil
	}
	// signature, then the 13 byte IHDR chunk with its length, type and CRC
	const afterIHDR = 8 + 4 + 4 + 13 + 4
	if len(plain) < afterIHDR {
		return nil, errors.New("exiftest: short png stream")
	}
	var out bytes.Buffer
	out.Write(plain[:afterIHDR])
	writePNGChunk(&out, "eXIf", tiffWithDate(dateTimeOriginal))
	out.Write(plain[afterIHDR:])
	return out.Bytes(), nil
}

// WebP returns an extended-format RIFF/WEBP container carrying a 1x1 lossless
// bitstream. When dateTimeOriginal is not empty an EXIF chunk holding it
// follows the image data and the VP8X header flags it.
func WebP(dateTimeOriginal string) []byte {
	var flags byte
	if dateTimeOriginal != "" {
		flags |= 0x08
	}
	var body bytes.Buffer
	body.WriteString("WEBP")
	// flags, three reserved bytes, then canvas width-1 and height-1 as 24 bit
	// little-endian values
	writeRIFFChunk(&body, "VP8X", []byte{flags, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	writeRIFFChunk(&body, "VP8L", vp8l1x1)
	if dateTimeOriginal != "" {
		writeRIFFChunk(&body, "EXIF", tiffWithDate(dateTimeOriginal))
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

const xmpPacket = "http://ns.adobe.com/xap/1.0/\x00<x:xmpmeta xmlns:x=\"adobe:ns:meta/\"/>"

// vp8l1x1 is a lossless bitstream for a single pixel.
var vp8l1x1 = []byte{0x2f, 0x00, 0x00, 0x00, 0x10, 0x07, 0x10, 0x11, 0x11, 0x88, 0x88, 0xfe, 0x07}

func writePNGChunk(out *bytes.Buffer, typ string, data []byte) {
	binary.Write(out, binary.BigEndian, uint32(len(data)))
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	out.WriteString(typ)
	out.Write(data)
	binary.Write(out, binary.BigEndian, crc.Sum32())
}

func writeRIFFChunk(out *bytes.Buffer, fourCC string, data []byte) {
	out.WriteString(fourCC)
	binary.Write(out, binary.LittleEndian, uint32(len(data)))
	out.Write(data)
	if len(data)%2 == 1 {
		out.WriteByte(0)
	}
}

func gray(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 90, G: 90, B: 90, A: 255}), image.Point{}, draw.Src)
	return img
}

func plainJPEG(width, height int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gray(width, height), &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func splice(plain, payload []byte) ([]byte, error) {
	if len(plain) < 2 || plain[0] != 0xFF || plain[1] != 0xD8 {
		return nil, errors.New("exiftest: not a jpeg stream")
	}
	if len(payload)+2 > 0xFFFF {
		return nil, errors.New("exiftest: app1 payload too large")
	}
	var out bytes.Buffer
	out.Write(plain[:2])
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(plain[2:])
	return out.Bytes(), nil
}

// tiffWithDate lays out a little-endian TIFF block: header, IFD0 with a single
// ExifIFDPointer entry, the Exif sub-IFD with DateTimeOriginal, then the
// string data.
func tiffWithDate(value string) []byte {
	const (
		ifd0At   = 8
		subIFDAt = ifd0At + 2 + 12 + 4
		dataAt   = subIFDAt + 2 + 12 + 4
	)
	data := append([]byte(value), 0)
	le := binary.LittleEndian

	var b bytes.Buffer
	b.WriteString("II")
	binary.Write(&b, le, uint16(42))
	binary.Write(&b, le, uint32(ifd0At))

	binary.Write(&b, le, uint16(1))
	writeEntry(&b, tagExifIFDPointer, typeLong, 1, le.AppendUint32(nil, subIFDAt))
	binary.Write(&b, le, uint32(0))

	binary.Write(&b, le, uint16(1))
	if len(data) <= 4 {
		inline := make([]byte, 4)
		copy(inline, data)
		writeEntry(&b, tagDateTimeOriginal, typeASCII, uint32(len(data)), inline)
		binary.Write(&b, le, uint32(0))
		return b.Bytes()
	}
	writeEntry(&b, tagDateTimeOriginal, typeASCII, uint32(len(data)), le.AppendUint32(nil, dataAt))
	binary.Write(&b, le, uint32(0))
	b.Write(data)
	return b.Bytes()
}

func writeEntry(b *bytes.Buffer, tag, typ uint16, count uint32, value []byte) {
	le := binary.LittleEndian
	binary.Write(b, le, tag)
	binary.Write(b, le, typ)
	binary.Write(b, le, count)
	b.Write(value)
}

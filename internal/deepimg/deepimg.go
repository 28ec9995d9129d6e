// Package deepimg frames planar floating-point frame data into a compact
// binary container: four zstd-compressed channel planes (R, G, B, A) with
// per-channel value-range attributes. Half (2-byte) and full (4-byte)
// precision samples are supported.
package deepimg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/x448/float16"
)

const (
	version byte = 1

	// Channels is the plane count; deep frames are always RGBA.
	Channels = 4
)

var (
	ErrCorrupt = errors.New("deepimg: corrupt frame")
	magic4     = [...]byte{'D', 'P', 'F', 'R'}

	channelNames = [Channels]byte{'R', 'G', 'B', 'A'}
)

// compressionLevel is fixed; every deep frame in a cache compresses the
// same way so byte output stays deterministic per input.
const compressionLevel = zstd.SpeedBetterCompression

var (
	encOnce sync.Once
	decOnce sync.Once
	zenc    *zstd.Encoder
	zdec    *zstd.Decoder
)

func encoder() *zstd.Encoder {
	encOnce.Do(func() {
		// EncodeAll-only usage; nil writer, single goroutine per call site
		zenc, _ = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(compressionLevel),
			zstd.WithEncoderConcurrency(1))
	})
	return zenc
}

func decoder() *zstd.Decoder {
	decOnce.Do(func() {
		zdec, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	return zdec
}

// Image is one planar deep frame. Planes hold raw little-endian samples,
// len(plane) == Width*Height*BytesPerChannel each. FormatTag is carried
// verbatim for the caller (pixel-format round-tripping).
type Image struct {
	Width, Height   int
	BytesPerChannel int // 2 = half float, 4 = full float
	FormatTag       byte
	Planes          [Channels][]byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode serializes img.
//
// Layout: magic(4) | ver(1) | tag(1) | width(u32 be) | height(u32 be) |
// bpc(u8) | nchan(u8), then per channel:
// name(1) | min(f32 be) | max(f32 be) | clen(u32 be) | zstd block(clen).
func Encode(img *Image) ([]byte, error) {
	if img.Width <= 0 || img.Height <= 0 {
		return nil, errors.New("deepimg: non-positive dimensions")
	}
	if img.BytesPerChannel != 2 && img.BytesPerChannel != 4 {
		return nil, errors.New("deepimg: bytes per channel must be 2 or 4")
	}
	want := img.Width * img.Height * img.BytesPerChannel
	for i, p := range img.Planes {
		if len(p) != want {
			return nil, errors.New("deepimg: plane " + string(channelNames[i]) + " has wrong length")
		}
	}

	var buf bytes.Buffer
	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(img.FormatTag)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(img.Width))
	buf.Write(u4[:])
	binary.BigEndian.PutUint32(u4[:], uint32(img.Height))
	buf.Write(u4[:])
	buf.WriteByte(byte(img.BytesPerChannel))
	buf.WriteByte(Channels)

	for i, p := range img.Planes {
		lo, hi := planeRange(p, img.BytesPerChannel)
		block := encoder().EncodeAll(p, nil)

		buf.WriteByte(channelNames[i])
		binary.BigEndian.PutUint32(u4[:], math.Float32bits(lo))
		buf.Write(u4[:])
		binary.BigEndian.PutUint32(u4[:], math.Float32bits(hi))
		buf.Write(u4[:])
		binary.BigEndian.PutUint32(u4[:], uint32(len(block)))
		buf.Write(u4[:])
		buf.Write(block)
	}

	return buf.Bytes(), nil
}

// Decode parses a deep frame produced by Encode.
func Decode(b []byte) (*Image, error) {
	const hdr = 4 + 1 + 1 + 4 + 4 + 1 + 1
	if len(b) < hdr || !hasMagic(b) || b[4] != version {
		return nil, ErrCorrupt
	}

	img := &Image{FormatTag: b[5]}
	off := 6

	img.Width = int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	img.Height = int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	img.BytesPerChannel = int(b[off])
	off++
	nchan := int(b[off])
	off++

	if img.Width <= 0 || img.Height <= 0 || nchan != Channels ||
		(img.BytesPerChannel != 2 && img.BytesPerChannel != 4) {
		return nil, ErrCorrupt
	}

	want := img.Width * img.Height * img.BytesPerChannel

	for i := 0; i < Channels; i++ {
		// name(1) + min(4) + max(4) + clen(4)
		if off+13 > len(b) {
			return nil, ErrCorrupt
		}
		if b[off] != channelNames[i] {
			return nil, ErrCorrupt
		}
		off += 9 // skip name and range attributes

		clen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if clen < 0 || clen > len(b)-off {
			return nil, ErrCorrupt
		}

		plane, err := decoder().DecodeAll(b[off:off+clen], nil)
		if err != nil || len(plane) != want {
			return nil, ErrCorrupt
		}
		img.Planes[i] = plane
		off += clen
	}

	return img, nil
}

// ChannelRange returns the stored min/max attributes for channel i without
// decompressing any plane.
func ChannelRange(b []byte, i int) (lo, hi float32, err error) {
	if len(b) < 16 || !hasMagic(b) || b[4] != version {
		return 0, 0, ErrCorrupt
	}
	if i < 0 || i >= Channels {
		return 0, 0, errors.New("deepimg: channel out of range")
	}
	off := 16
	for c := 0; c < Channels; c++ {
		if off+13 > len(b) {
			return 0, 0, ErrCorrupt
		}
		if c == i {
			lo = math.Float32frombits(binary.BigEndian.Uint32(b[off+1 : off+5]))
			hi = math.Float32frombits(binary.BigEndian.Uint32(b[off+5 : off+9]))
			return lo, hi, nil
		}
		clen := int(binary.BigEndian.Uint32(b[off+9 : off+13]))
		if clen < 0 || clen > len(b)-(off+13) {
			return 0, 0, ErrCorrupt
		}
		off += 13 + clen
	}
	return 0, 0, ErrCorrupt
}

// planeRange computes the min/max sample values of a plane, interpreting
// samples as half or full precision floats. NaN samples are skipped.
func planeRange(p []byte, bpc int) (lo, hi float32) {
	lo = float32(math.Inf(1))
	hi = float32(math.Inf(-1))
	n := 0
	for off := 0; off+bpc <= len(p); off += bpc {
		var v float32
		if bpc == 2 {
			v = float16.Frombits(binary.LittleEndian.Uint16(p[off : off+2])).Float32()
		} else {
			v = math.Float32frombits(binary.LittleEndian.Uint32(p[off : off+4]))
		}
		if v != v { // NaN
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return lo, hi
}

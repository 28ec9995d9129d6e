package persist

// Format identifies the pixel layout of a decoded frame buffer.
//
// Integer formats are packed interleaved RGB or RGBA with 8- or 16-bit
// little-endian samples. Float formats are always packed interleaved RGBA
// with half (16-bit) or full (32-bit) little-endian samples, regardless of
// whether the logical image carries alpha.
type Format int

const (
	FormatInvalid Format = iota
	FormatRGB8
	FormatRGBA8
	FormatRGB16
	FormatRGBA16
	FormatRGB16F
	FormatRGBA16F
	FormatRGB32F
	FormatRGBA32F
)

// IsValid reports whether f is a known pixel format.
func (f Format) IsValid() bool { return f > FormatInvalid && f <= FormatRGBA32F }

// IsFloat reports whether f carries floating-point samples.
func (f Format) IsFloat() bool { return f >= FormatRGB16F && f <= FormatRGBA32F }

// ChannelCount returns the logical channel count of f.
func (f Format) ChannelCount() int {
	switch f {
	case FormatRGB8, FormatRGB16, FormatRGB16F, FormatRGB32F:
		return 3
	case FormatRGBA8, FormatRGBA16, FormatRGBA16F, FormatRGBA32F:
		return 4
	default:
		return 0
	}
}

// BufferChannels returns the channel count of the packed buffer: float
// buffers are always RGBA-packed, integer buffers match ChannelCount.
func (f Format) BufferChannels() int {
	if f.IsFloat() {
		return 4
	}
	return f.ChannelCount()
}

// BytesPerChannel returns the per-sample byte width.
func (f Format) BytesPerChannel() int {
	switch f {
	case FormatRGB8, FormatRGBA8:
		return 1
	case FormatRGB16, FormatRGBA16, FormatRGB16F, FormatRGBA16F:
		return 2
	case FormatRGB32F, FormatRGBA32F:
		return 4
	default:
		return 0
	}
}

// Ext returns the cache file extension for f's format class. Exactly two
// choices exist: the deep multi-channel container for float formats and
// the compressed integer-sample container otherwise.
func (f Format) Ext() string {
	if f.IsFloat() {
		return ".dpf"
	}
	return ".jpg"
}

func (f Format) String() string {
	switch f {
	case FormatRGB8:
		return "rgb8"
	case FormatRGBA8:
		return "rgba8"
	case FormatRGB16:
		return "rgb16"
	case FormatRGBA16:
		return "rgba16"
	case FormatRGB16F:
		return "rgb16f"
	case FormatRGBA16F:
		return "rgba16f"
	case FormatRGB32F:
		return "rgb32f"
	case FormatRGBA32F:
		return "rgba32f"
	default:
		return "invalid"
	}
}

// VideoParams carry the effective geometry and pixel format of a frame.
type VideoParams struct {
	Width  int
	Height int
	Format Format
}

// BufferLen returns the expected packed buffer length for p.
func (p VideoParams) BufferLen() int {
	return p.Width * p.Height * p.Format.BufferChannels() * p.Format.BytesPerChannel()
}

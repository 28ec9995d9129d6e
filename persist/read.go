package persist

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/framecache/internal/deepimg"
)

// ReadFrame decodes a cache file back into a packed buffer.
//
// Deep (float) frames round-trip byte-for-byte. Integer frames come back
// as RGBA8 regardless of the source layout — JPEG decoding is lossy and
// does not preserve channel count or bit depth.
func ReadFrame(path string) ([]byte, VideoParams, error) {
	switch ext := filepath.Ext(path); ext {
	case ".dpf":
		return readDeep(path)
	case ".jpg":
		return readJPEG(path)
	default:
		return nil, VideoParams{}, fmt.Errorf("persist: unknown cache file extension %q", ext)
	}
}

func readDeep(path string) ([]byte, VideoParams, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, VideoParams{}, err
	}
	img, err := deepimg.Decode(b)
	if err != nil {
		return nil, VideoParams{}, fmt.Errorf("persist: decode %s: %w", path, err)
	}
	f := Format(img.FormatTag)
	if !f.IsFloat() || f.BytesPerChannel() != img.BytesPerChannel {
		return nil, VideoParams{}, fmt.Errorf("persist: %s: format tag %d disagrees with container", path, img.FormatTag)
	}
	vp := VideoParams{Width: img.Width, Height: img.Height, Format: f}
	return interleave(img), vp, nil
}

func readJPEG(path string) ([]byte, VideoParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, VideoParams{}, err
	}
	defer f.Close()

	src, err := jpeg.Decode(f)
	if err != nil {
		return nil, VideoParams{}, fmt.Errorf("persist: decode %s: %w", path, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := make([]byte, w*h*4)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			buf[i+0] = uint8(r >> 8)
			buf[i+1] = uint8(g >> 8)
			buf[i+2] = uint8(b >> 8)
			buf[i+3] = uint8(a >> 8)
			i += 4
		}
	}

	vp := VideoParams{Width: w, Height: h, Format: FormatRGBA8}
	return buf, vp, nil
}

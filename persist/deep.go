package persist

import (
	"github.com/unkn0wn-root/framecache/internal/deepimg"
)

// encodeDeep encodes a float-format frame. The source is a packed
// interleaved RGBA buffer; it is de-interleaved into four channel planes
// with a per-pixel stride of 4*bpc, a per-row stride of width*4*bpc and
// channel byte offsets 0, bpc, 2*bpc, 3*bpc.
func encodeDeep(buf []byte, vp VideoParams) ([]byte, error) {
	bpc := vp.Format.BytesPerChannel()
	xs := deepimg.Channels * bpc
	pixels := vp.Width * vp.Height

	img := &deepimg.Image{
		Width:           vp.Width,
		Height:          vp.Height,
		BytesPerChannel: bpc,
		FormatTag:       byte(vp.Format),
	}
	for c := 0; c < deepimg.Channels; c++ {
		img.Planes[c] = make([]byte, pixels*bpc)
	}

	for i := 0; i < pixels; i++ {
		src := i * xs
		dst := i * bpc
		for c := 0; c < deepimg.Channels; c++ {
			copy(img.Planes[c][dst:dst+bpc], buf[src+c*bpc:src+(c+1)*bpc])
		}
	}

	return deepimg.Encode(img)
}

// interleave packs a planar deep image back into the interleaved RGBA
// layout encodeDeep consumed.
func interleave(img *deepimg.Image) []byte {
	bpc := img.BytesPerChannel
	xs := deepimg.Channels * bpc
	pixels := img.Width * img.Height

	buf := make([]byte, pixels*xs)
	for i := 0; i < pixels; i++ {
		dst := i * xs
		src := i * bpc
		for c := 0; c < deepimg.Channels; c++ {
			copy(buf[dst+c*bpc:dst+(c+1)*bpc], img.Planes[c][src:src+bpc])
		}
	}
	return buf
}

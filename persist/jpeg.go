package persist

import (
	"bytes"
	"image"
	"image/jpeg"
)

// encodeJPEG encodes an integer-format packed buffer. The stdlib encoder
// runs on the calling goroutine only, which keeps resource use bounded
// when many frames encode concurrently. 16-bit samples are carried as
// their high byte; JPEG stores 8-bit samples.
func encodeJPEG(buf []byte, vp VideoParams, quality int) ([]byte, error) {
	channels := vp.Format.BufferChannels()
	bpc := vp.Format.BytesPerChannel()
	px := channels * bpc

	img := image.NewNRGBA(image.Rect(0, 0, vp.Width, vp.Height))

	sample := func(off int) uint8 {
		if bpc == 2 {
			return buf[off+1] // high byte of a little-endian u16
		}
		return buf[off]
	}

	i := 0
	for y := 0; y < vp.Height; y++ {
		for x := 0; x < vp.Width; x++ {
			src := i * px
			dst := img.PixOffset(x, y)
			img.Pix[dst+0] = sample(src)
			img.Pix[dst+1] = sample(src + bpc)
			img.Pix[dst+2] = sample(src + 2*bpc)
			if channels == 4 {
				img.Pix[dst+3] = sample(src + 3*bpc)
			} else {
				img.Pix[dst+3] = 0xFF
			}
			i++
		}
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

package helpers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	"image/png"

	"golang.org/x/image/draw"
)

// NormalizeAvatar decodes a PNG or JPEG and re-encodes it as a size×size PNG.
// The source is stretched to fill the square.
func NormalizeAvatar(raw []byte, size int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

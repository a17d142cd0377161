package signature

import (
	"bytes"
	"image"

	// Registered decoders for the formats accepted at the API surface.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/drforse/match/internal/errors"
)

// decodeGray decodes data into a matrix of gray levels in [0, 1].
// Rec. 709 luma coefficients.
func decodeGray(data []byte) ([][]float64, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeImageDecode, "decode", "cannot decode image")
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.NewImageDecode("decode", "image has no pixels")
	}

	gray := make([][]float64, bounds.Dy())
	for y := range gray {
		gray[y] = make([]float64, bounds.Dx())
		for x := range gray[y] {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gray[y][x] = (0.2125*float64(r) + 0.7154*float64(g) + 0.0721*float64(b)) / 65535.0
		}
	}
	return gray, nil
}

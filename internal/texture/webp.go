package texture

import (
	"image"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"github.com/pkg/errors"
)

// EncodeWebP writes img as a lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return errors.Wrap(err, "texture: webp encode")
	}
	return nil
}

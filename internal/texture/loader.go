package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// ErrNotFound is returned when no file exists for a texture name.
var ErrNotFound = errors.New("texture not found")

// Codec turns a texture name, relative to the materials root and without
// extension, into an image.
type Codec interface {
	Load(name string) (*image.NRGBA, error)
}

// DefaultExtensions lists the container formats tried, in order. Compiled
// .vtf textures are expected to have been converted to one of these.
var DefaultExtensions = []string{".tga", ".png", ".jpg", ".bmp", ".webp"}

// decoders picks the decoder by file extension. TARGA has no magic number,
// so sniffing through image.Decode would hand every format to it.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".tga":  tga.Decode,
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".bmp":  bmp.Decode,
	".webp": webp.Decode,
}

// ImageCodec loads textures through an Index, decoding by file extension.
type ImageCodec struct {
	Index      *Index
	Extensions []string
}

func NewImageCodec(idx *Index) *ImageCodec {
	return &ImageCodec{Index: idx, Extensions: DefaultExtensions}
}

// Load tries each extension in turn and decodes the first file found.
func (c *ImageCodec) Load(name string) (*image.NRGBA, error) {
	for _, ext := range c.Extensions {
		p, ok := c.Index.ResolvePath(name + ext)
		if !ok {
			continue
		}
		return LoadTexture(c.Index.FS(), p)
	}
	return nil, errors.Wrapf(ErrNotFound, "texture: %s", name)
}

// LoadTexture reads and decodes one image file.
func LoadTexture(fsys fs.FS, p string) (*image.NRGBA, error) {
	raw, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, errors.Wrapf(err, "texture: read %s", p)
	}
	ext := strings.ToLower(path.Ext(p))
	decode, ok := decoders[ext]
	if !ok {
		return nil, errors.Errorf("texture: %s: unsupported format %q", p, ext)
	}
	img, err := decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "texture: decode %s", p)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		// No alpha
		draw.Draw(dst, b, src, b.Min, draw.Src)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.Pix[dst.PixOffset(x, y)+3] = 255
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				i := dst.PixOffset(x, y)
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = c.R, c.G, c.B, c.A
			}
		}
	}
	return dst
}

package purego

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"

	"radcap-go/radcap"
)

// ImageNet channel statistics the encoder backbone was trained with
var (
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// ImageTransform turns an image file into a normalized [1,3,S,S] CHW tensor
type ImageTransform struct {
	mode       string
	size       int
	resizeSize int
	mean       [3]float32
	std        [3]float32
}

// NewImageTransform creates a transform for the given mode. In resize mode
// the image is squashed to size×size with Lanczos; in center-crop mode the
// shorter side is scaled to resizeSize and the center size×size is kept.
func NewImageTransform(mode string, size, resizeSize int) (*ImageTransform, error) {
	if mode != radcap.TransformResize && mode != radcap.TransformCenterCrop {
		return nil, fmt.Errorf("unknown transform %q", mode)
	}
	if size <= 0 || resizeSize < size {
		return nil, fmt.Errorf("invalid transform sizes %d/%d", size, resizeSize)
	}
	return &ImageTransform{
		mode:       mode,
		size:       size,
		resizeSize: resizeSize,
		mean:       ImageNetMean,
		std:        ImageNetStd,
	}, nil
}

// Mode names the preprocessing variant
func (t *ImageTransform) Mode() string {
	return t.mode
}

// Size returns the output edge length
func (t *ImageTransform) Size() int {
	return t.size
}

// Apply loads and preprocesses an image file
func (t *ImageTransform) Apply(path string) ([]float32, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return t.ApplyImage(img), nil
}

// ApplyImage preprocesses a decoded image
func (t *ImageTransform) ApplyImage(img image.Image) []float32 {
	img = flattenAlpha(img)

	var rgba *image.RGBA
	if t.mode == radcap.TransformCenterCrop {
		rgba = t.resizeShorterSide(img)
		rgba = centerCrop(rgba, t.size)
	} else {
		rgba = transform.Resize(img, t.size, t.size, transform.Lanczos)
	}
	return t.toTensor(rgba)
}

// flattenAlpha drops the alpha channel and keeps the stored colour, so a
// transparent pixel reads as its RGB value rather than black.
func flattenAlpha(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return out
}

func (t *ImageTransform) resizeShorterSide(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var nw, nh int
	if w <= h {
		nw = t.resizeSize
		nh = int(float64(t.resizeSize) * float64(h) / float64(w))
	} else {
		nh = t.resizeSize
		nw = int(float64(t.resizeSize) * float64(w) / float64(h))
	}
	return transform.Resize(img, nw, nh, transform.Linear)
}

// centerCrop keeps the central size×size window, rounding the offset the
// same way torchvision does.
func centerCrop(img *image.RGBA, size int) *image.RGBA {
	b := img.Bounds()
	top := int(math.Round(float64(b.Dy()-size) / 2))
	left := int(math.Round(float64(b.Dx()-size) / 2))
	rect := image.Rect(b.Min.X+left, b.Min.Y+top, b.Min.X+left+size, b.Min.Y+top+size)
	return transform.Crop(img, rect)
}

// toTensor scales bytes to [0,1] and normalizes per channel, writing
// channel-major output.
func (t *ImageTransform) toTensor(img *image.RGBA) []float32 {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	plane := h * w
	out := make([]float32, 3*plane)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			px := row[4*x : 4*x+3]
			for c := 0; c < 3; c++ {
				v := float32(px[c]) / 255
				out[c*plane+y*w+x] = (v - t.mean[c]) / t.std[c]
			}
		}
	}
	return out
}

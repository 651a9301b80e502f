package ocr

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// PreprocessOptions controls the preprocessing stages. Each stage can be
// toggled independently; the resize target is what the OCR backends expect.
type PreprocessOptions struct {
	Grayscale    bool
	Contrast     bool
	Threshold    bool
	TargetWidth  int
	TargetHeight int
}

// DefaultPreprocessOptions returns the pipeline used for plate photos.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Grayscale:    true,
		Contrast:     true,
		Threshold:    true,
		TargetWidth:  1000,
		TargetHeight: 320,
	}
}

// Decode reads and decodes an image, wrapping failures in ErrDecode so
// callers can distinguish bad uploads from processing errors.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// DecodeFile decodes an image from disk via imaging, wrapping in ErrDecode.
func DecodeFile(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Preprocess applies the configured stages and returns a new image; the
// source is never modified. With all stages off it still returns a resized
// copy so output dimensions always match the target.
func Preprocess(src image.Image, opts PreprocessOptions) *image.NRGBA {
	out := imaging.Clone(src)
	if opts.Grayscale {
		out = imaging.Grayscale(out)
	}
	if opts.Contrast {
		out = imaging.AdjustContrast(out, 20)
		out = imaging.Sharpen(out, 0.7)
	}
	if opts.Threshold {
		out = binarize(out, 200)
		out = adaptiveThreshold(out, 15, 7)
	}
	if opts.TargetWidth > 0 && opts.TargetHeight > 0 {
		b := out.Bounds()
		if b.Dx() != opts.TargetWidth || b.Dy() != opts.TargetHeight {
			out = imaging.Resize(out, opts.TargetWidth, opts.TargetHeight, imaging.Lanczos)
		}
	}
	return out
}

// PreprocessToTemp preprocesses an image file and writes the result to a
// temporary PNG for backends that read from disk. The cleanup func removes it.
func PreprocessToTemp(path string, opts PreprocessOptions) (string, func(), error) {
	img, err := DecodeFile(path)
	if err != nil {
		return "", nil, err
	}
	out := Preprocess(img, opts)
	f, err := os.CreateTemp("", "plate-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("temp file: %w", err)
	}
	tmp := f.Name()
	_ = f.Close()
	if err := imaging.Save(out, tmp); err != nil {
		_ = os.Remove(tmp)
		return "", nil, fmt.Errorf("save preprocessed image: %w", err)
	}
	return tmp, func() { _ = os.Remove(tmp) }, nil
}

// binarize performs a simple global threshold on a grayscale image.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			gray := uint8((r + g + bb) / 3 >> 8)
			var v uint8 = 255
			if gray <= threshold {
				v = 0
			}
			out.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

// adaptiveThreshold performs a mean adaptive threshold over a sliding window,
// which copes with uneven lighting across a plate better than a global cut.
func adaptiveThreshold(img image.Image, window int, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	out := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	half := window / 2
	ints := make([]int, w*h)
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			v := int((r + g + b) / 3 >> 8)
			rowSum += v
			idx := y*w + x
			if y == 0 {
				ints[idx] = rowSum
			} else {
				ints[idx] = ints[(y-1)*w+x] + rowSum
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := x-half, y-half
			x1, y1 := x+half, y+half
			if x0 < 0 {
				x0 = 0
			}
			if y0 < 0 {
				y0 = 0
			}
			if x1 >= w {
				x1 = w - 1
			}
			if y1 >= h {
				y1 = h - 1
			}
			a := ints[y0*w+x0]
			b := ints[y0*w+x1]
			c := ints[y1*w+x0]
			d := ints[y1*w+x1]
			sum := d - b - c + a
			mean := sum / ((x1 - x0 + 1) * (y1 - y0 + 1))
			rv, gv, bv, _ := img.At(x, y).RGBA()
			pix := int((rv + gv + bv) / 3 >> 8)
			th := mean - bias
			if th < 0 {
				th = 0
			}
			var cc color.NRGBA
			if pix < th {
				cc = color.NRGBA{0, 0, 0, 255}
			} else {
				cc = color.NRGBA{255, 255, 255, 255}
			}
			out.Set(x, y, cc)
		}
	}
	return out
}

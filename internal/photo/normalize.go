package photo

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxEdge = 1600
	DefaultQuality = 85
)

type Image struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// NormalizeStaticImage decodes src, shrinks it so neither edge exceeds maxEdge
// and re-encodes it. Images with transparency stay PNG, everything else
// becomes JPEG. Small images are never upscaled.
func NormalizeStaticImage(src io.Reader, maxEdge int, quality int) (*Image, error) {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("invalid image dimensions")
	}

	width, height := scaleDimensions(bounds.Dx(), bounds.Dy(), maxEdge)
	buf := bytes.NewBuffer(nil)

	if !isOpaque(img) {
		dst := image.NewNRGBA(image.Rect(0, 0, width, height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
		if err := png.Encode(buf, dst); err != nil {
			return nil, fmt.Errorf("encoding png: %w", err)
		}
		return &Image{Data: buf.Bytes(), MimeType: "image/png", Width: width, Height: height}, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	if err := jpeg.Encode(buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return &Image{Data: buf.Bytes(), MimeType: "image/jpeg", Width: width, Height: height}, nil
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return true
}

func scaleDimensions(width, height, maxEdge int) (int, int) {
	if width <= maxEdge && height <= maxEdge {
		return width, height
	}

	if width >= height {
		ratio := float64(maxEdge) / float64(width)
		scaledHeight := int(float64(height)*ratio + 0.5)
		if scaledHeight < 1 {
			scaledHeight = 1
		}
		return maxEdge, scaledHeight
	}

	ratio := float64(maxEdge) / float64(height)
	scaledWidth := int(float64(width)*ratio + 0.5)
	if scaledWidth < 1 {
		scaledWidth = 1
	}
	return scaledWidth, maxEdge
}

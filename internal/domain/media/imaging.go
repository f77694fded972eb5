package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	FullSizeMax  = 1600
	ThumbnailMax = 320
	JPEGQuality  = 85
)

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

type derived struct {
	full, thumb   []byte
	width, height int
}

// sniff reports the content type from the bytes, not the client header.
func sniff(data []byte) (string, bool) {
	mime := http.DetectContentType(data)
	return mime, allowedMIME[mime]
}

// derive decodes data and re-encodes it as a downscaled full-size JPEG and a
// thumbnail JPEG.
func derive(data []byte) (*derived, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrUndecodable.Wrap(err)
	}

	full := downscale(img, FullSizeMax)
	thumb := downscale(img, ThumbnailMax)

	fullBytes, err := encode(full)
	if err != nil {
		return nil, err
	}
	thumbBytes, err := encode(thumb)
	if err != nil {
		return nil, err
	}

	b := full.Bounds()
	return &derived{full: fullBytes, thumb: thumbBytes, width: b.Dx(), height: b.Dy()}, nil
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale keeps the aspect ratio so neither side exceeds maxDim.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = h * maxDim / w
	} else {
		newW = w * maxDim / h
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

package capture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/foodfriend/foodfriend/pkg/food"
)

// JPEGQuality matches the 0.8 compression the upload path has always used.
const JPEGQuality = 80

// Normalize reads the image at uri (a path or a file:// URI), whatever its
// format, and re-encodes it as JPEG.
func Normalize(uri string) (food.Photo, error) {
	path := strings.TrimPrefix(uri, "file://")
	f, err := os.Open(path)
	if err != nil {
		return food.Photo{}, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return food.Photo{}, fmt.Errorf("decode %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return food.Photo{}, fmt.Errorf("encode %s as jpeg: %w", format, err)
	}
	return food.Photo{URI: uri, JPEG: buf.Bytes()}, nil
}

package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif" // Register GIF format decoder
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Load decodes an image file from disk.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Supported formats are
//     PNG, JPEG, GIF, TIFF and BMP.
//
// Returns:
//   - image.Image: The decoded image. JPEG files carrying an EXIF orientation
//     tag are rotated upright, so detector boxes computed on the displayed
//     image line up with the pixels returned here.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// Nothing is cached: every call reads the file again.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a supported image
func Load(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	return img, nil
}

// Save writes img to path, choosing the encoder from the file extension.
// Missing parent directories are created.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return errors.Wrapf(err, "unsupported output format %q", strings.ToLower(filepath.Ext(path)))
	}
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrap(err, "failed to save image")
	}
	return nil
}

// EncodePNGBase64 encodes img as PNG and returns it base64 encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", errors.Wrap(err, "failed to encode image")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

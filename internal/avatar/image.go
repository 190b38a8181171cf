package avatar

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/crypto/blake2b"
)

// Image is the avatar reference stored on a profile. The pixel data itself is
// not retained; URL points at the hosted copy when an uploader is configured.
type Image struct {
	Digest string `json:"digest"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int    `json:"size"`
	URL    string `json:"url,omitempty"`
}

// Decode validates that data is a supported image and describes it.
func Decode(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}

	sum := blake2b.Sum256(data)
	return &Image{
		Digest: hex.EncodeToString(sum[:]),
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		Size:   len(data),
	}, nil
}

package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// DefaultFolder is the Cloudinary folder avatars are stored under.
const DefaultFolder = "cleersplit/avatars"

// CloudinaryUploader hosts avatars on Cloudinary. The content digest is used
// as the public ID so re-selecting the same photo reuses the stored asset.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret, folder string) (*CloudinaryUploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary: missing credentials")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	if folder == "" {
		folder = DefaultFolder
	}

	return &CloudinaryUploader{
		cld:    cld,
		folder: folder,
	}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, data []byte, publicID string) (string, error) {
	uploadResult, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       u.folder,
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", uploadResult.Error.Message)
	}

	return uploadResult.SecureURL, nil
}

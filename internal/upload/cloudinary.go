package upload

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// DefaultFolder is the Cloudinary folder menu images go to.
const DefaultFolder = "menu-images"

// backgroundRemoval is the eager transformation that cuts the subject out
// and keeps transparency.
const backgroundRemoval = "e_background_removal/f_png"

// cloudinaryAPI is the part of the Cloudinary upload API used here.
type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	UnsignedUpload(ctx context.Context, file interface{}, preset string, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Cloudinary uploads with the account's API key and asks for a
// background-removed copy.
type Cloudinary struct {
	api    cloudinaryAPI
	folder string
}

// NewCloudinary creates a signed uploader.
func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("configuring cloudinary: %w", err)
	}
	if folder == "" {
		folder = DefaultFolder
	}
	return &Cloudinary{api: &cld.Upload, folder: folder}, nil
}

// Name returns "cloudinary".
func (c *Cloudinary) Name() string { return "cloudinary" }

// Upload implements Uploader. The background-removed URL is returned when
// the transformation produced one, else the original.
func (c *Cloudinary) Upload(ctx context.Context, img Image) (*Result, error) {
	res, err := c.api.Upload(ctx, bytes.NewReader(img.Data), uploader.UploadParams{
		Folder:     c.folder,
		Eager:      backgroundRemoval,
		EagerAsync: api.Bool(false),
	})
	if err := resultError(res, err); err != nil {
		return nil, err
	}

	out := &Result{URL: res.SecureURL, PublicID: res.PublicID, Provider: c.Name()}
	if len(res.Eager) > 0 && res.Eager[0].SecureURL != "" {
		out.URL = res.Eager[0].SecureURL
		out.BackgroundRemoved = true
	}
	return out, nil
}

// UnsignedCloudinary uploads through an unsigned upload preset, without
// transformations.
type UnsignedCloudinary struct {
	api    cloudinaryAPI
	preset string
	folder string
}

// NewUnsignedCloudinary creates an uploader for an unsigned preset.
func NewUnsignedCloudinary(cloudName, preset, folder string) (*UnsignedCloudinary, error) {
	if preset == "" {
		return nil, fmt.Errorf("unsigned upload needs a preset")
	}
	cld, err := cloudinary.NewFromParams(cloudName, "", "")
	if err != nil {
		return nil, fmt.Errorf("configuring cloudinary: %w", err)
	}
	if folder == "" {
		folder = DefaultFolder
	}
	return &UnsignedCloudinary{api: &cld.Upload, preset: preset, folder: folder}, nil
}

// Name returns "cloudinary-unsigned".
func (c *UnsignedCloudinary) Name() string { return "cloudinary-unsigned" }

// Upload implements Uploader.
func (c *UnsignedCloudinary) Upload(ctx context.Context, img Image) (*Result, error) {
	res, err := c.api.UnsignedUpload(ctx, bytes.NewReader(img.Data), c.preset, uploader.UploadParams{
		Folder: c.folder,
	})
	if err := resultError(res, err); err != nil {
		return nil, err
	}
	return &Result{URL: res.SecureURL, PublicID: res.PublicID, Provider: c.Name()}, nil
}

func resultError(res *uploader.UploadResult, err error) error {
	if err != nil {
		return fmt.Errorf("uploading to cloudinary: %w", err)
	}
	if res == nil {
		return fmt.Errorf("uploading to cloudinary: empty response")
	}
	if res.Error.Message != "" {
		return fmt.Errorf("uploading to cloudinary: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return fmt.Errorf("uploading to cloudinary: no URL returned")
	}
	return nil
}

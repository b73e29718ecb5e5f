// Package upload sends menu images to the media CDN, falling back through
// a chain of uploaders until one succeeds.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoUploaders is returned by an empty chain.
var ErrNoUploaders = errors.New("no image uploader configured")

// Image is a processed image ready for upload.
type Image struct {
	Data []byte
	MIME string
	Ext  string
}

// Result describes a stored image.
type Result struct {
	URL               string `json:"imageUrl"`
	PublicID          string `json:"publicId"`
	BackgroundRemoved bool   `json:"bgRemoved"`
	Provider          string `json:"provider"`
}

// Uploader stores an image and returns where it ended up.
type Uploader interface {
	Name() string
	Upload(ctx context.Context, img Image) (*Result, error)
}

// Chain tries each uploader in order and returns the first success.
type Chain []Uploader

// Name returns "chain".
func (c Chain) Name() string { return "chain" }

// Upload implements Uploader.
func (c Chain) Upload(ctx context.Context, img Image) (*Result, error) {
	if len(c) == 0 {
		return nil, ErrNoUploaders
	}
	var errs []error
	for _, u := range c {
		res, err := u.Upload(ctx, img)
		if err == nil {
			if res.Provider == "" {
				res.Provider = u.Name()
			}
			return res, nil
		}
		slog.Warn("image upload failed", "uploader", u.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", u.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

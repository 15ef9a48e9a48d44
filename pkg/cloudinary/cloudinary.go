package cloudinary

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client uploads product media (cover images, preview videos) and returns
// delivery URLs with optimization transformations applied.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, publicID string) (url string, err error)
	UploadVideo(ctx context.Context, file io.Reader, publicID string) (url, posterURL string, err error)
}

const (
	productFolder = "sigilo/products"
	imageEager    = "q_auto,f_auto,w_800,c_fill"
	videoEager    = "q_auto:low,f_auto,w_1280"
)

var eagerAsyncFalse = false

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{cloudName: cloudName, uploader: up}, nil
}

func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, publicID string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     productFolder,
		PublicID:   publicID,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	if len(result.Eager) > 0 {
		return result.Eager[0].SecureURL, nil
	}
	return result.SecureURL, nil
}

func (c *clientImpl) UploadVideo(ctx context.Context, file io.Reader, publicID string) (string, string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:       productFolder,
		PublicID:     publicID,
		ResourceType: "video",
		Eager:        videoEager,
		EagerAsync:   &eagerAsyncFalse,
	})
	if err != nil {
		return "", "", err
	}
	url := result.SecureURL
	if len(result.Eager) > 0 {
		url = result.Eager[0].SecureURL
	}
	poster := fmt.Sprintf("https://res.cloudinary.com/%s/video/upload/so_0/%s.jpg", c.cloudName, result.PublicID)
	return url, poster, nil
}

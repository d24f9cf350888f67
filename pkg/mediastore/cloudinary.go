package mediastore

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// CloudinaryConfig holds Cloudinary credentials (from env or config).
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string // root folder, e.g. "SafeRoute"
}

// Eager transformations for upload (single string per SDK)
const (
	imageEager = "q_auto,f_auto,w_800,c_fill"
	videoEager = "q_auto:low,f_auto,w_1280"
)

var eagerAsyncFalse = false

// CloudinaryStore uploads media to Cloudinary. References are the secure
// delivery URLs, which also carry the public ID needed for deletion.
type CloudinaryStore struct {
	cloudName string
	folder    string
	uploader  *uploader.API
}

// NewCloudinaryStore builds a store from Cloudinary cloud name, API key, and secret.
func NewCloudinaryStore(cfg CloudinaryConfig) (*CloudinaryStore, error) {
	ccfg, err := config.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(ccfg)
	if err != nil {
		return nil, err
	}
	return &CloudinaryStore{cloudName: cfg.CloudName, folder: cfg.Folder, uploader: up}, nil
}

// resourceType maps a MIME type onto Cloudinary's resource types. Audio is
// handled as video.
func resourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"), strings.HasPrefix(contentType, "audio/"):
		return "video"
	default:
		return "raw"
	}
}

// Save uploads with eager optimizations (auto quality, format, resize).
func (s *CloudinaryStore) Save(ctx context.Context, folder, filename string, body io.Reader, contentType string) (string, error) {
	rt := resourceType(contentType)
	name := objectName("", filename)
	publicID := strings.TrimSuffix(name, path.Ext(name))
	if rt == "raw" {
		publicID = name
	}
	params := uploader.UploadParams{
		Folder:       path.Join(s.folder, folder),
		PublicID:     publicID,
		ResourceType: rt,
	}
	switch rt {
	case "image":
		params.Eager = imageEager
		params.EagerAsync = &eagerAsyncFalse
	case "video":
		if strings.HasPrefix(contentType, "video/") {
			params.Eager = videoEager
			params.EagerAsync = &eagerAsyncFalse
		}
	}
	result, err := s.uploader.Upload(ctx, body, params)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

// Delete destroys the asset behind a delivery URL.
func (s *CloudinaryStore) Delete(ctx context.Context, ref string) error {
	rt, publicID, ok := parseDeliveryURL(ref)
	if !ok {
		return nil
	}
	res, err := s.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: rt})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, res.Error.Message)
	}
	return nil
}

func (s *CloudinaryStore) URL(ref string) string { return ref }

var versionSegment = regexp.MustCompile(`^v\d+$`)

// parseDeliveryURL extracts resource type and public ID from
// https://res.cloudinary.com/<cloud>/<type>/upload/[<transforms>/][v<ver>/]<public_id>[.<ext>].
func parseDeliveryURL(u string) (resourceType, publicID string, ok bool) {
	const marker = "res.cloudinary.com/"
	i := strings.Index(u, marker)
	if i < 0 {
		return "", "", false
	}
	parts := strings.Split(u[i+len(marker):], "/")
	// cloud, type, "upload", rest...
	if len(parts) < 4 || parts[2] != "upload" {
		return "", "", false
	}
	resourceType = parts[1]
	rest := parts[3:]
	for j, seg := range rest {
		if versionSegment.MatchString(seg) {
			rest = rest[j+1:]
			break
		}
	}
	if len(rest) == 0 {
		return "", "", false
	}
	publicID = strings.Join(rest, "/")
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	}
	return resourceType, publicID, true
}

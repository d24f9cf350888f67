// Package mediastore persists uploaded report media, profile pictures and ID
// documents. Backends return an opaque reference that is stored in the
// database and later resolved to a public URL.
package mediastore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store saves and removes media objects.
type Store interface {
	// Save writes body under folder and returns the reference to persist.
	Save(ctx context.Context, folder, filename string, body io.Reader, contentType string) (string, error)
	// Delete removes the object behind ref. Missing objects are not an error.
	Delete(ctx context.Context, ref string) error
	// URL resolves ref to a URL a browser can load.
	URL(ref string) string
}

// Folders used for each kind of upload.
const (
	FolderIncidentImages = "incident_images"
	FolderIncidentVideos = "incident_videos"
	FolderIncidentAudio  = "incident_audio"
	FolderProfiles       = "profiles"
	FolderIDDocuments    = "user_ids"
)

var ErrUnsupportedBackend = errors.New("unsupported media backend")

// objectName builds a collision-free object name that keeps the upload's
// extension.
func objectName(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}
	return path.Join(folder, uuid.NewString()+ext)
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func joinURL(base, ref string) string {
	if ref == "" || isAbsoluteURL(ref) {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

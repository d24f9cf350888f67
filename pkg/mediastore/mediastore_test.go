package mediastore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"saferoute/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveURLDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root, "/media/")
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := s.Save(ctx, FolderIncidentImages, "Suspect.JPG", strings.NewReader("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "incident_images/"))
	assert.True(t, strings.HasSuffix(ref, ".jpg"))
	assert.Equal(t, "/media/"+ref, s.URL(ref))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, s.Delete(ctx, ref))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))
	// Deleting twice is fine.
	assert.NoError(t, s.Delete(ctx, ref))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/media/")
	require.NoError(t, err)
	assert.Error(t, s.Delete(context.Background(), "../etc/passwd"))
}

func TestLocalStore_UniqueNames(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	a, err := s.Save(context.Background(), FolderProfiles, "me.png", strings.NewReader("a"), "image/png")
	require.NoError(t, err)
	b, err := s.Save(context.Background(), FolderProfiles, "me.png", strings.NewReader("b"), "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "/media/"+a, s.URL(a))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a/b.jpg", joinURL("https://cdn.example.com/", "a/b.jpg"))
	assert.Equal(t, "https://other/x.jpg", joinURL("/media/", "https://other/x.jpg"))
	assert.Equal(t, "", joinURL("/media/", ""))
}

func TestParseDeliveryURL(t *testing.T) {
	tests := []struct {
		url, rt, id string
		ok          bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/SafeRoute/incident_images/abc.jpg", "image", "SafeRoute/incident_images/abc", true},
		{"https://res.cloudinary.com/demo/video/upload/q_auto/v99/SafeRoute/incident_audio/rec.mp3", "video", "SafeRoute/incident_audio/rec", true},
		{"https://res.cloudinary.com/demo/raw/upload/v1/docs/file.pdf", "raw", "docs/file.pdf", true},
		{"https://res.cloudinary.com/demo/image/upload/plain.png", "image", "plain", true},
		{"https://example.com/image.jpg", "", "", false},
		{"incident_images/abc.jpg", "", "", false},
	}
	for _, tt := range tests {
		rt, id, ok := parseDeliveryURL(tt.url)
		assert.Equal(t, tt.ok, ok, tt.url)
		assert.Equal(t, tt.rt, rt, tt.url)
		assert.Equal(t, tt.id, id, tt.url)
	}
}

func TestResourceType(t *testing.T) {
	assert.Equal(t, "image", resourceType("image/png"))
	assert.Equal(t, "video", resourceType("video/mp4"))
	assert.Equal(t, "video", resourceType("audio/mpeg"))
	assert.Equal(t, "raw", resourceType("application/pdf"))
}

func TestNew_LocalAndUnknown(t *testing.T) {
	s, err := New(context.Background(), &config.MediaConfig{Backend: "local", Root: t.TempDir(), URL: "/media/"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = New(context.Background(), &config.MediaConfig{Backend: "ftp"})
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

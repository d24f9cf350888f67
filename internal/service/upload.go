package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"saferoute/pkg/mediastore"
)

// Upload is one file taken from a multipart form. Open is called once, when
// the file is written to the media store.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func saveUpload(ctx context.Context, store mediastore.Store, folder string, up Upload) (string, error) {
	f, err := up.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", up.Filename, err)
	}
	defer f.Close()
	ref, err := store.Save(ctx, folder, up.Filename, f, up.ContentType)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", up.Filename, err)
	}
	return ref, nil
}

// purge removes stored objects after their rows are gone. Failures leave an
// orphaned object behind and are only logged.
func purge(ctx context.Context, store mediastore.Store, refs []string) {
	if store == nil {
		return
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := store.Delete(ctx, ref); err != nil {
			slog.Warn("media purge failed", "component", "media", "ref", ref, "err", err)
		}
	}
}

package service

import (
	"path/filepath"
	"strings"
)

const (
	msgRequired      = "This field is required."
	msgUsernameTaken = "A user with that username already exists."
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgZoneExists    = "You already have a zone with this name."
)

var (
	imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true, ".heic": true}
	videoExts = map[string]bool{".mp4": true, ".mov": true, ".webm": true, ".avi": true, ".mkv": true, ".3gp": true}
	audioExts = map[string]bool{".mp3": true, ".wav": true, ".m4a": true, ".ogg": true, ".aac": true, ".webm": true, ".amr": true}
)

func isImage(up Upload) bool { return hasKind(up, "image/", imageExts) }
func isVideo(up Upload) bool { return hasKind(up, "video/", videoExts) }
func isAudio(up Upload) bool { return hasKind(up, "audio/", audioExts) }

// hasKind accepts a file when either its declared content type or its
// extension matches. Browsers often send application/octet-stream.
func hasKind(up Upload, prefix string, exts map[string]bool) bool {
	if strings.HasPrefix(strings.ToLower(up.ContentType), prefix) {
		return true
	}
	return exts[strings.ToLower(filepath.Ext(up.Filename))]
}

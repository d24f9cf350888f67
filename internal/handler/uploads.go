package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"saferoute/internal/service"

	"github.com/gin-gonic/gin"
)

func uploadFrom(fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open:        func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// formFiles collects the files posted under field, accepting both the
// "images[]" and "images" spellings.
func formFiles(c *gin.Context, field string) []service.Upload {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	var out []service.Upload
	for _, key := range []string{field + "[]", field} {
		for _, fh := range form.File[key] {
			out = append(out, uploadFrom(fh))
		}
	}
	return out
}

// formFile returns the single optional file posted under field.
func formFile(c *gin.Context, field string) (*service.Upload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	up := uploadFrom(fh)
	return &up, nil
}

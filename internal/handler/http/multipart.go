package http

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vidora/vidora/internal/storage"
)

// maxUploadSize caps multipart request bodies (512 MB, videos included).
const maxUploadSize = 512 << 20

// formFileUpload builds an upload input from a multipart form file. Returns
// (nil, nil) when the field is absent.
func formFileUpload(r *http.Request, field, keyPrefix string) (*storage.UploadInput, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, fmt.Errorf("read form file %s: %w", field, err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &storage.UploadInput{
		Key:         fmt.Sprintf("%s/%s%s", keyPrefix, uuid.New().String(), filepath.Ext(header.Filename)),
		ContentType: contentType,
		Size:        header.Size,
		Data:        file,
	}, nil
}

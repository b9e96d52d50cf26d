package validators

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

const maxFileNameSize = 255

// FileValidator checks an uploaded file against the configured size and
// type limits. Returns the detected content type on success.
func FileValidator(fh *multipart.FileHeader) (int, multipart.File, string, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, "", ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, "", ErrFileNameTooLong
	}

	if fh.Size > viper.GetInt64("upload.max_size") {
		return http.StatusRequestEntityTooLarge, nil, "", ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, "", err
	}

	// Sniff the actual bytes instead of trusting the Content-Type header
	// which any client can spoof
	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, "", err
	}

	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, "", err
	}

	allowed := viper.GetStringSlice("upload.allowed_types")
	if len(allowed) == 0 {
		return 0, f, mime.String(), nil
	}

	for _, t := range allowed {
		if mime.Is(t) || strings.HasPrefix(mime.String(), strings.TrimSuffix(t, "*")) {
			return 0, f, mime.String(), nil
		}
	}

	f.Close()
	return http.StatusBadRequest, nil, "", ErrFileTypeUnsupported
}

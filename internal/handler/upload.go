package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
)

// FileStore persists uploaded files and returns their public path.
type FileStore interface {
	Save(originalName string, r io.Reader) (string, error)
	Delete(publicPath string) error
}

// Uploader stores multipart files under a size limit.
type Uploader struct {
	store   FileStore
	maxSize int64
	logger  *zap.Logger
}

// NewUploader constructs an Uploader. A non-positive maxSize means 5 MiB.
func NewUploader(store FileStore, maxSize int64, logger *zap.Logger) *Uploader {
	if maxSize <= 0 {
		maxSize = 5 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{store: store, maxSize: maxSize, logger: logger}
}

// Save stores the file of the form field. A missing optional file yields
// nil.
func (u *Uploader) Save(c *gin.Context, field string, required bool) (*string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			if required {
				return nil, appErrors.Clone(appErrors.ErrValidation, field+" is required")
			}
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid multipart payload")
	}
	if header.Size > u.maxSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s exceeds the %d byte limit", field, u.maxSize))
	}

	src, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	defer src.Close()

	path, err := u.store.Save(header.Filename, io.LimitReader(src, u.maxSize))
	if err != nil {
		return nil, appErrors.Storage(err, "failed to store file")
	}
	return &path, nil
}

// Discard removes a file stored earlier in a request that then failed.
func (u *Uploader) Discard(path *string) {
	if path == nil {
		return
	}
	if err := u.store.Delete(*path); err != nil {
		u.logger.Warn("discard upload", zap.String("path", *path), zap.Error(err))
	}
}

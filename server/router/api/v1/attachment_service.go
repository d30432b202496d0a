package v1

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/lexhub/lexchat/chatapi"
	"github.com/lexhub/lexchat/store"
)

// UploadFile accepts one multipart file, validates it, stores the bytes under
// the data directory, and returns an attachment reference.
func (s *APIV1Service) UploadFile(c echo.Context) error {
	ctx := c.Request().Context()
	userID := authedUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	if fileHeader.Size > s.Profile.UploadMaxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file is too large")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.Profile.UploadMaxBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read file")
	}
	if int64(len(data)) > s.Profile.UploadMaxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file is too large")
	}

	contentType := http.DetectContentType(data)
	if strings.HasPrefix(contentType, "image/") {
		if err := s.uploadSemaphore.Acquire(ctx, 1); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "upload is busy")
		}
		_, decodeErr := imaging.Decode(bytes.NewReader(data))
		s.uploadSemaphore.Release(1)
		if decodeErr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "image file is corrupt")
		}
	}

	id := shortuuid.New()
	uploadDir := filepath.Join(s.Profile.Data, "uploads")
	if err := os.MkdirAll(uploadDir, 0750); err != nil {
		slog.Error("failed to create upload directory", "dir", uploadDir, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store file")
	}
	path := filepath.Join(uploadDir, id)
	if err := os.WriteFile(path, data, 0640); err != nil {
		slog.Error("failed to write upload", "path", path, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store file")
	}

	attachment, err := s.Store.CreateAttachment(ctx, &store.Attachment{
		ID:          id,
		Filename:    filepath.Base(fileHeader.Filename),
		ContentType: contentType,
		Size:        int64(len(data)),
		Path:        path,
		CreatedTs:   time.Now().Unix(),
	})
	if err != nil {
		slog.Error("failed to persist attachment", "id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store file")
	}

	slog.Info("file uploaded", "user_id", userID, "attachment_id", attachment.ID, "size", attachment.Size)
	return c.JSON(http.StatusOK, chatapi.UploadResult{
		ID:          attachment.ID,
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
		Size:        attachment.Size,
	})
}

package handler

import (
	"archive/zip"
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/harvest/models"
)

// DownloadSingle returns a handler for POST /api/v1/download/single.
// It streams one asset's stored bytes with its sniffed content type.
func DownloadSingle(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DownloadSingleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		buf, _, ok := store.FindBuffer(req.ImageID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "image not found in any retained session",
				},
			})
			return
		}

		filename := buf.Name + "." + strings.ToLower(buf.Format)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, contentTypeFor(buf.Format), buf.Data)
	}
}

// DownloadArchive returns a handler for POST /api/v1/download/archive.
// It zips the requested assets and streams the archive. Missing IDs are
// skipped; the archive fails only when nothing could be resolved.
func DownloadArchive(store *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DownloadArchiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		var out bytes.Buffer
		zw := zip.NewWriter(&out)

		var groupName string
		written := 0
		used := make(map[string]int)
		for _, id := range req.ImageIDs {
			buf, sess, ok := store.FindBuffer(id)
			if !ok {
				slog.Debug("archive: image not found, skipping", "image_id", id)
				continue
			}
			if groupName == "" {
				groupName = sess.GroupName
			}

			name := buf.Name + "." + strings.ToLower(buf.Format)
			// Distinct assets can share a display name; suffix duplicates.
			if n := used[name]; n > 0 {
				name = fmt.Sprintf("%s-%d.%s", buf.Name, n, strings.ToLower(buf.Format))
			}
			used[buf.Name+"."+strings.ToLower(buf.Format)]++

			w, err := zw.Create(name)
			if err != nil {
				continue
			}
			if _, err := w.Write(buf.Data); err != nil {
				continue
			}
			written++
		}

		if err := zw.Close(); err != nil || written == 0 {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "none of the requested images are available",
				},
			})
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", groupName+".zip"))
		c.Data(http.StatusOK, "application/zip", out.Bytes())
	}
}

// contentTypeFor maps a sniffed format name to a MIME type. Unknown formats
// download as opaque bytes.
func contentTypeFor(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	case "svg":
		return "image/svg+xml"
	case "ico":
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}

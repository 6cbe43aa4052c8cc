package server

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/server/respond"
	"recruit-backend/internal/shared/storage/object"
)

// registerFileRoutes serves objects under the public URLs the local store hands out.
func registerFileRoutes(rg *gin.RouterGroup, store object.ObjectStore) {
	rg.GET("/files/*key", func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if key == "" {
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}

		body, err := store.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, object.ErrNotFound) {
				respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
				return
			}
			respond.Error(c, http.StatusBadRequest, "invalid_key", "invalid file key", nil)
			return
		}
		defer body.Close()

		contentType := mime.TypeByExtension(strings.ToLower(path.Ext(key)))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.DataFromReader(http.StatusOK, -1, contentType, body, map[string]string{
			"Cache-Control": "private, max-age=300",
		})
	})
}

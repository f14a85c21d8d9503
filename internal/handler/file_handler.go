package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reprint-api/internal/service"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
	"github.com/noah-isme/reprint-api/pkg/response"
)

type previewResolver interface {
	ResolvePreview(token string) (*service.Preview, error)
}

// FileHandler serves signed previews of uploaded files.
type FileHandler struct {
	previews previewResolver
}

// NewFileHandler constructs the handler.
func NewFileHandler(previews previewResolver) *FileHandler {
	return &FileHandler{previews: previews}
}

// Preview godoc
// @Summary Uploaded file preview
// @Tags Files
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/preview [get]
func (h *FileHandler) Preview(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Field("token", "token is required"))
		return
	}
	preview, err := h.previews.ResolvePreview(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer preview.File.Close()

	info, err := preview.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unable to read preview"))
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, info.Size(), preview.ContentType, preview.File, map[string]string{
		"Content-Disposition": `inline; filename="` + preview.Name + `"`,
	})
}

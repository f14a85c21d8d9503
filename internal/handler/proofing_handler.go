package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reprint-api/internal/dto"
	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/proofing"
	"github.com/noah-isme/reprint-api/internal/service"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
	"github.com/noah-isme/reprint-api/pkg/response"
)

// ProofingHandler exposes the proofing workspace of the calling session.
type ProofingHandler struct {
	service *service.ProofingService
}

// NewProofingHandler constructs the handler.
func NewProofingHandler(svc *service.ProofingService) *ProofingHandler {
	return &ProofingHandler{service: svc}
}

func (h *ProofingHandler) respond(c *gin.Context, res *service.WorkspaceResult, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// State godoc
// @Summary Workspace snapshot
// @Tags Proofing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /proofing [get]
func (h *ProofingHandler) State(c *gin.Context) {
	res, err := h.service.State(sessionKey(c), userFromContext(c))
	h.respond(c, res, err)
}

// Open godoc
// @Summary Open the workspace
// @Description Without a session user the login prompt is raised and 401 returned; pick a role with the same X-Session-ID to continue.
// @Tags Proofing
// @Produce json
// @Param X-Session-ID header string false "Guest session id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /proofing/open [post]
func (h *ProofingHandler) Open(c *gin.Context) {
	res, err := h.service.Open(sessionKey(c), userFromContext(c))
	h.respond(c, res, err)
}

// Close godoc
// @Summary Leave without saving
// @Tags Proofing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /proofing/close [post]
func (h *ProofingHandler) Close(c *gin.Context) {
	res, err := h.service.Close(sessionKey(c), userFromContext(c))
	h.respond(c, res, err)
}

// Upload godoc
// @Summary Upload a file for analysis
// @Description The analysis runs in the background; poll GET /proofing until analyzing is false.
// @Tags Proofing
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Print file"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /proofing/uploads [post]
func (h *ProofingHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Field("file", "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read file"))
		return
	}
	defer file.Close()

	res, err := h.service.Upload(c.Request.Context(), sessionKey(c), userFromContext(c), fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, res)
}

// SetTab godoc
// @Summary Switch the side panel
// @Tags Proofing
// @Accept json
// @Produce json
// @Param payload body dto.TabRequest true "Tab"
// @Success 200 {object} response.Envelope
// @Router /proofing/tab [put]
func (h *ProofingHandler) SetTab(c *gin.Context) {
	var req dto.TabRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.SetTab(sessionKey(c), userFromContext(c), req.Tab)
	h.respond(c, res, err)
}

// Zoom godoc
// @Summary Change the zoom level
// @Tags Proofing
// @Accept json
// @Produce json
// @Param payload body dto.ZoomRequest true "Zoom"
// @Success 200 {object} response.Envelope
// @Router /proofing/zoom [put]
func (h *ProofingHandler) Zoom(c *gin.Context) {
	var req dto.ZoomRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Zoom(sessionKey(c), userFromContext(c), strings.ToLower(req.Direction), req.Level)
	h.respond(c, res, err)
}

// SelectTool godoc
// @Summary Select an editor tool
// @Tags Proofing
// @Accept json
// @Produce json
// @Param payload body dto.ToolRequest true "Tool"
// @Success 200 {object} response.Envelope
// @Router /proofing/tool [put]
func (h *ProofingHandler) SelectTool(c *gin.Context) {
	var req dto.ToolRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.SelectTool(sessionKey(c), userFromContext(c), req.Tool)
	h.respond(c, res, err)
}

// ToggleLayer godoc
// @Summary Toggle a canvas layer
// @Tags Proofing
// @Produce json
// @Param layer path string true "image, ai_markers or comments"
// @Success 200 {object} response.Envelope
// @Router /proofing/layers/{layer}/toggle [post]
func (h *ProofingHandler) ToggleLayer(c *gin.Context) {
	res, err := h.service.ToggleLayer(sessionKey(c), userFromContext(c), proofing.Layer(c.Param("layer")))
	h.respond(c, res, err)
}

// SetPlan godoc
// @Summary Choose a plan
// @Tags Proofing
// @Accept json
// @Produce json
// @Param payload body dto.PlanRequest true "Plan"
// @Success 200 {object} response.Envelope
// @Router /proofing/plan [put]
func (h *ProofingHandler) SetPlan(c *gin.Context) {
	var req dto.PlanRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.SetPlan(sessionKey(c), userFromContext(c), req.Plan)
	h.respond(c, res, err)
}

// FixIssue godoc
// @Summary Apply the automatic fix for an issue
// @Description Fixing an already fixed issue returns changed=false.
// @Tags Proofing
// @Produce json
// @Param index path int true "Issue index"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /proofing/issues/{index}/fix [post]
func (h *ProofingHandler) FixIssue(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.Field("index", "issue index must be an integer"))
		return
	}
	res, err := h.service.FixIssue(sessionKey(c), userFromContext(c), index)
	h.respond(c, res, err)
}

// PlaceMarker godoc
// @Summary Place the comment marker
// @Description Send percent coordinates (x, y) or a pixel click (client_x, client_y) with the canvas bounds.
// @Tags Proofing
// @Accept json
// @Produce json
// @Param payload body dto.MarkerRequest true "Position"
// @Success 200 {object} response.Envelope
// @Router /proofing/marker [post]
func (h *ProofingHandler) PlaceMarker(c *gin.Context) {
	var req dto.MarkerRequest
	if !bindJSON(c, &req) {
		return
	}
	var point models.Point
	switch {
	case req.X != nil && req.Y != nil:
		point = models.Point{X: *req.X, Y: *req.Y}
	case req.ClientX != nil && req.ClientY != nil && req.Bounds != nil:
		p, err := proofing.NormalizeClick(*req.ClientX, *req.ClientY, *req.Bounds)
		if err != nil {
			response.Error(c, err)
			return
		}
		point = p
	default:
		response.Error(c, appErrors.Field("position", "x and y, or client_x, client_y and bounds are required"))
		return
	}
	res, err := h.service.PlaceMarker(sessionKey(c), userFromContext(c), point)
	h.respond(c, res, err)
}

// ClearMarker godoc
// @Summary Discard the comment marker
// @Tags Proofing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /proofing/marker [delete]
func (h *ProofingHandler) ClearMarker(c *gin.Context) {
	res, err := h.service.ClearMarker(sessionKey(c), userFromContext(c))
	h.respond(c, res, err)
}

// SendComment godoc
// @Summary Comment at the marker
// @Tags Proofing
// @Accept json
// @Produce json
// @Param payload body dto.CommentRequest true "Comment"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /proofing/comments [post]
func (h *ProofingHandler) SendComment(c *gin.Context) {
	var req dto.CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.SendComment(sessionKey(c), userFromContext(c), req.Text)
	h.respond(c, res, err)
}

// Approve godoc
// @Summary Approve the active version
// @Tags Proofing
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /proofing/approve [post]
func (h *ProofingHandler) Approve(c *gin.Context) {
	res, err := h.service.Approve(sessionKey(c), userFromContext(c))
	h.respond(c, res, err)
}

// Reject godoc
// @Summary Reject the active version
// @Tags Proofing
// @Accept json
// @Produce json
// @Param payload body dto.RejectRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /proofing/reject [post]
func (h *ProofingHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.Reject(sessionKey(c), userFromContext(c), req.Reason)
	h.respond(c, res, err)
}

// Submit godoc
// @Summary Send for teacher review
// @Tags Proofing
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proofing/submit [post]
func (h *ProofingHandler) Submit(c *gin.Context) {
	res, err := h.service.Submit(c.Request.Context(), sessionKey(c), userFromContext(c))
	h.respond(c, res, err)
}

// ForcePrint godoc
// @Summary Ask to print despite open issues
// @Tags Proofing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /proofing/force-print [post]
func (h *ProofingHandler) ForcePrint(c *gin.Context) {
	res, err := h.service.ForcePrint(sessionKey(c), userFromContext(c))
	h.respond(c, res, err)
}

// ConfirmForcePrint godoc
// @Summary Confirm printing despite open issues
// @Tags Proofing
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmForcePrintRequest true "Acknowledgement"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /proofing/force-print/confirm [post]
func (h *ProofingHandler) ConfirmForcePrint(c *gin.Context) {
	var req dto.ConfirmForcePrintRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.ConfirmForcePrint(sessionKey(c), userFromContext(c), req.Acknowledged)
	h.respond(c, res, err)
}

// CancelForcePrint godoc
// @Summary Cancel a force print confirmation
// @Tags Proofing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /proofing/force-print [delete]
func (h *ProofingHandler) CancelForcePrint(c *gin.Context) {
	res, err := h.service.CancelForcePrint(sessionKey(c), userFromContext(c))
	h.respond(c, res, err)
}

// Estimate godoc
// @Summary Calculator prefill for the current project
// @Tags Proofing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /proofing/estimate [post]
func (h *ProofingHandler) Estimate(c *gin.Context) {
	res, err := h.service.Estimate(sessionKey(c), userFromContext(c))
	h.respond(c, res, err)
}

// Projects godoc
// @Summary List projects
// @Tags Proofing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /proofing/projects [get]
func (h *ProofingHandler) Projects(c *gin.Context) {
	projects, err := h.service.Projects(sessionKey(c), userFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects)
}

// SwitchProject godoc
// @Summary Make a project current
// @Tags Proofing
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /proofing/projects/{id}/switch [post]
func (h *ProofingHandler) SwitchProject(c *gin.Context) {
	res, err := h.service.SwitchProject(sessionKey(c), userFromContext(c), c.Param("id"))
	h.respond(c, res, err)
}

// Save godoc
// @Summary Save and close
// @Description Closes the workspace and writes the displayed score back to the project.
// @Tags Proofing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /proofing/save [post]
func (h *ProofingHandler) Save(c *gin.Context) {
	res, err := h.service.Save(sessionKey(c), userFromContext(c))
	h.respond(c, res, err)
}

// Chat godoc
// @Summary Ask the embedded consultant
// @Description Mentions of bleed, resolution, safe zone or colour highlight the matching unfixed issue.
// @Tags Proofing
// @Accept json
// @Produce json
// @Param payload body models.ChatRequest true "Question"
// @Success 200 {object} response.Envelope
// @Router /proofing/chat [post]
func (h *ProofingHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.service.Chat(c.Request.Context(), sessionKey(c), userFromContext(c), req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out)
}

package handlers

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-api/internal/dto"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/pkg/logger"
)

// AttachmentHandler serves attachment upload and download.
type AttachmentHandler struct {
	attachmentService *services.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(attachmentService *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// UploadAttachment stores the multipart "file" field on a task.
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "Missing file")
		return
	}
	file, err := header.Open()
	if err != nil {
		apierrors.BadRequest(c, "Unreadable file")
		return
	}
	defer file.Close()

	attachment, err := h.attachmentService.Upload(c.Request.Context(), caller, taskID, header.Filename, file)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAttachmentDTO(*attachment))
}

// ListAttachments returns a task's attachments.
func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	caller, ok := currentCaller(c)
	if !ok {
		return
	}
	taskID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	attachments, err := h.attachmentService.List(c.Request.Context(), caller, taskID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAttachmentDTOs(attachments))
}

// DownloadAttachment streams the file under its original name.
func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	download, err := h.attachmentService.Open(c.Request.Context(), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	defer func() {
		if err := download.File.Close(); err != nil {
			logger.Warn().Err(err).Str("attachment_id", id.String()).Msg("failed to close attachment file")
		}
	}()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": download.Attachment.Filename})
	c.DataFromReader(http.StatusOK, download.Attachment.Size, download.ContentType, download.File, map[string]string{
		"Content-Disposition": disposition,
	})
}

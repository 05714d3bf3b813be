package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
	"github.com/noah-isme/ecampus-api/pkg/response"
)

type noteService interface {
	Create(ctx context.Context, input models.NoteInput) (*models.Note, error)
	List(ctx context.Context, subject string) ([]models.Note, error)
}

// NoteHandler exposes study note endpoints.
type NoteHandler struct {
	notes   noteService
	uploads *Uploader
}

// NewNoteHandler constructs NoteHandler.
func NewNoteHandler(notes noteService, uploads *Uploader) *NoteHandler {
	return &NoteHandler{notes: notes, uploads: uploads}
}

// Create godoc
// @Summary Share a note
// @Tags Notes
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param subject formData string true "Subject"
// @Param file formData file false "Attachment"
// @Success 201 {object} response.Envelope
// @Router /notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	var input models.NoteInput
	if err := c.ShouldBind(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
		return
	}
	file, err := h.uploads.Save(c, "file", false)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.File = file

	note, err := h.notes.Create(c.Request.Context(), input)
	if err != nil {
		h.uploads.Discard(file)
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// List godoc
// @Summary List notes
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Filter by subject"
// @Success 200 {object} response.Envelope
// @Router /notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.notes.List(c.Request.Context(), c.Query("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, http.StatusOK, notes, nil)
}

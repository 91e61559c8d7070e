package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tikets-io/tikets/internal/api/dto"
	"github.com/tikets-io/tikets/internal/domain"
	"github.com/tikets-io/tikets/internal/service"
	"github.com/tikets-io/tikets/internal/upload"
	apperrors "github.com/tikets-io/tikets/pkg/util"
)

// TicketsHandler manages ticket endpoints. Submission, lookup and message
// append are public; listing and state changes are admin-only (enforced by
// routing).
type TicketsHandler struct {
	service *service.TicketService
	blobs   *upload.BlobStore
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, blobs *upload.BlobStore) *TicketsHandler {
	return &TicketsHandler{service: ticketService, blobs: blobs}
}

// CreateTicket POST /tickets (multipart, up to 6 file parts).
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewValidationError("multipart form required", nil)
	}

	fields := dto.ResolveContactFields(form.Value)
	if fields.Name == "" || fields.Email == "" {
		return apperrors.NewValidationError("name and email required", nil)
	}

	files := form.File["files"]
	if len(files) > domain.MaxAttachments {
		return apperrors.NewInvalidInput("too many attachments",
			map[string]any{"max": domain.MaxAttachments, "got": len(files)})
	}

	// blobs are written before the record; a failed record write below may
	// leave orphaned files behind, which is the accepted failure mode
	attachments := make([]string, 0, len(files))
	for _, fileHeader := range files {
		src, err := fileHeader.Open()
		if err != nil {
			return apperrors.NewStorageFailure(err)
		}
		ref, err := h.blobs.Save(fileHeader.Filename, src)
		src.Close()
		if err != nil {
			return apperrors.NewStorageFailure(err)
		}
		attachments = append(attachments, ref)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.CreateTicketInput{
		Name:        fields.Name,
		NationalID:  fields.NationalID,
		Email:       fields.Email,
		Phone:       fields.Phone,
		Description: fields.Description,
		Attachments: attachments,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.CreateTicketResponse{
		Success:  true,
		TicketID: ticket.ID,
		Ticket:   *ticket,
	})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	summaries, err := h.service.ListTickets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(summaries)
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

// AppendMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AppendMessage(c *fiber.Ctx) error {
	var req dto.AppendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.AppendMessage(c.UserContext(), c.Params("id"),
		req.ResolvedText(), req.ResolvedKind(), req.ResolvedAuthor())
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

// ChangeState PUT /tickets/:id/state.
func (h *TicketsHandler) ChangeState(c *fiber.Ctx) error {
	var req dto.ChangeStateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.ChangeState(c.UserContext(), c.Params("id"), req.ResolvedState())
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

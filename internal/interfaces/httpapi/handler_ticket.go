package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/lottostack/draw-engine/internal/domain/ticket"
	"github.com/lottostack/draw-engine/internal/usecase"
)

type submitTicketRequest struct {
	UserID  string   `json:"userId"`
	Numbers []string `json:"numbers" validate:"required,len=4,dive,required"`
}

type ticketResponse struct {
	ID           string    `json:"id"`
	Numbers      []string  `json:"numbers"`
	UserID       string    `json:"userId"`
	Timestamp    time.Time `json:"timestamp"`
	IsFreeTicket bool      `json:"isFreeTicket,omitempty"`
	WonFrom      string    `json:"wonFrom,omitempty"`
}

func (h *Handler) SubmitTicket(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitTicket")
	defer span.End()

	var req submitTicketRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: malformed request body", usecase.ErrInvalidInput))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %s", usecase.ErrInvalidInput, err.Error()))
		return
	}

	entry, err := h.ticketService.Submit(ctx, usecase.SubmitTicketInput{
		UserID:  req.UserID,
		Numbers: req.Numbers,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, toTicketResponse(entry))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTicket")
	defer span.End()

	id := strings.TrimSpace(r.PathValue("id"))
	entry, err := h.ticketService.GetByID(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toTicketResponse(entry))
}

func toTicketResponse(entry ticket.Ticket) ticketResponse {
	return ticketResponse{
		ID:           entry.ID,
		Numbers:      entry.Numbers,
		UserID:       entry.UserID,
		Timestamp:    entry.CreatedAt,
		IsFreeTicket: entry.IsFreeTicket,
		WonFrom:      entry.WonFrom,
	}
}

package httpapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/lottostack/draw-engine/internal/platform/logging"
	"github.com/lottostack/draw-engine/internal/usecase"
)

type Handler struct {
	settlementService *usecase.SettlementService
	ticketService     *usecase.TicketService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	settlementService *usecase.SettlementService,
	ticketService *usecase.TicketService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		settlementService: settlementService,
		ticketService:     ticketService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

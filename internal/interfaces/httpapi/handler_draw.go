package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/lottostack/draw-engine/internal/domain/draw"
	"github.com/lottostack/draw-engine/internal/usecase"
)

type settleJobRequest struct {
	InvocationID string `json:"invocationId"`
}

type gameStateResponse struct {
	WinningNumbers []string  `json:"winningNumbers"`
	NextDrawTime   time.Time `json:"nextDrawTime"`
	LastProcessID  string    `json:"lastProcessId"`
}

type ticketRefResponse struct {
	ID        string    `json:"id"`
	Numbers   []string  `json:"numbers"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type resultResponse struct {
	ID             string              `json:"id"`
	MinuteKey      string              `json:"minuteKey"`
	WinningNumbers []string            `json:"winningNumbers"`
	Timestamp      time.Time           `json:"timestamp"`
	FirstPrize     []ticketRefResponse `json:"firstPrize"`
	SecondPrize    []ticketRefResponse `json:"secondPrize"`
	ThirdPrize     []ticketRefResponse `json:"thirdPrize"`
	FreePrize      []ticketRefResponse `json:"freePrize"`
}

// RunSettleJob is the manual/queue-driven settlement trigger. The outcome
// code tells the caller what happened; Contended and AlreadySettled are
// normal concurrent-safety outcomes, not errors.
func (h *Handler) RunSettleJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSettleJob")
	defer span.End()

	if h.settlementService == nil {
		writeError(ctx, w, fmt.Errorf("%w: settlement service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeSettleJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	outcome, err := h.settlementService.Settle(ctx, usecase.SettleInput{
		InvocationID: req.InvocationID,
		Manual:       true,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "manual settlement failed",
			"window_key", outcome.WindowKey,
			"invocation_id", req.InvocationID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, outcome)
}

func (h *Handler) GetCurrentDraw(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentDraw")
	defer span.End()

	state, err := h.settlementService.CurrentState(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameStateResponse{
		WinningNumbers: state.Winning,
		NextDrawTime:   state.NextDrawTime,
		LastProcessID:  state.LastProcessID,
	})
}

func (h *Handler) GetResultByWindow(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetResultByWindow")
	defer span.End()

	windowKey := strings.TrimSpace(r.URL.Query().Get("window_key"))
	if windowKey == "" {
		writeError(ctx, w, fmt.Errorf("%w: window_key query parameter is required", usecase.ErrInvalidInput))
		return
	}

	result, err := h.settlementService.ResultByWindow(ctx, windowKey)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toResultResponse(result))
}

func decodeSettleJobRequest(r *http.Request) (settleJobRequest, error) {
	req := settleJobRequest{InvocationID: "manual"}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return settleJobRequest{}, fmt.Errorf("%w: read request body", usecase.ErrInvalidInput)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return req, nil
	}
	if err := sonic.Unmarshal(body, &req); err != nil {
		return settleJobRequest{}, fmt.Errorf("%w: malformed request body", usecase.ErrInvalidInput)
	}
	if strings.TrimSpace(req.InvocationID) == "" {
		req.InvocationID = "manual"
	}
	return req, nil
}

func toResultResponse(result draw.Result) resultResponse {
	return resultResponse{
		ID:             result.ID,
		MinuteKey:      result.WindowKey,
		WinningNumbers: result.Winning,
		Timestamp:      result.CreatedAt,
		FirstPrize:     toTicketRefResponses(result.FirstPrize),
		SecondPrize:    toTicketRefResponses(result.SecondPrize),
		ThirdPrize:     toTicketRefResponses(result.ThirdPrize),
		FreePrize:      toTicketRefResponses(result.FreePrize),
	}
}

func toTicketRefResponses(refs []draw.TicketRef) []ticketRefResponse {
	out := make([]ticketRefResponse, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ticketRefResponse{
			ID:        ref.ID,
			Numbers:   ref.Numbers,
			UserID:    ref.UserID,
			Timestamp: ref.CreatedAt,
		})
	}
	return out
}

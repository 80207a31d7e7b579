package httpapi

import (
	"net/http"

	"github.com/lottostack/draw-engine/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	logger *logging.Logger,
	corsAllowedOrigins []string,
	internalJobToken string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/draws/current", handler.GetCurrentDraw)
	mux.HandleFunc("GET /v1/draws/results", handler.GetResultByWindow)
	mux.HandleFunc("POST /v1/tickets", handler.SubmitTicket)
	mux.HandleFunc("GET /v1/tickets/{id}", handler.GetTicket)
	mux.Handle("POST /v1/internal/jobs/settle",
		RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSettleJob)))

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/notifyhub/notify-dispatch/internal/api/middleware"
	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/service"
)

// NotificationHandler accepts notification requests for asynchronous dispatch.
type NotificationHandler struct {
	svc    *service.NotificationService
	logger *zap.Logger
}

func NewNotificationHandler(svc *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

type submitResponse struct {
	Message string `json:"message"`
	*service.SubmitResult
}

// Create handles POST /api/v1/notifications
//
// @Summary     Queue notifications for one recipient across channels
// @Tags        notifications
// @Accept      json
// @Produce     json
// @Param       body  body      domain.NotifyRequest  true  "Recipient and per-channel payloads"
// @Success     202   {object}  submitResponse
// @Failure     400   {object}  map[string]string
// @Failure     422   {object}  map[string]string
// @Failure     503   {object}  map[string]string
// @Router      /api/v1/notifications [post]
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	correlationID := apimw.GetCorrelationID(r.Context())
	res, err := h.svc.Submit(r.Context(), req, correlationID)
	if err != nil {
		h.logger.Warn("submit notifications failed",
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, submitResponse{
		Message:      "Notifications have been queued.",
		SubmitResult: res,
	})
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/domain"
	"github.com/notifyhub/notify-dispatch/internal/service"
)

// LogHandler exposes the delivery audit log.
type LogHandler struct {
	svc    *service.NotificationService
	logger *zap.Logger
}

func NewLogHandler(svc *service.NotificationService, logger *zap.Logger) *LogHandler {
	return &LogHandler{svc: svc, logger: logger}
}

// GetByID handles GET /api/v1/notification-logs/{id}
//
// @Summary  Get one delivery record
// @Tags     notification-logs
// @Produce  json
// @Param    id   path      int  true  "Log ID"
// @Success  200  {object}  domain.NotificationLog
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/notification-logs/{id} [get]
func (h *LogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	l, err := h.svc.GetLog(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

// List handles GET /api/v1/notification-logs
//
// @Summary  List delivery records, newest first
// @Tags     notification-logs
// @Produce  json
// @Param    channel    query     string  false  "Filter by channel"
// @Param    recipient  query     string  false  "Filter by recipient identifier"
// @Param    page       query     int     false  "Page number (default 1)"
// @Param    limit      query     int     false  "Items per page (default 30, max 100)"
// @Success  200        {object}  map[string]any
// @Router   /api/v1/notification-logs [get]
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseLogFilter(r)
	logs, total, err := h.svc.ListLogs(r.Context(), filter)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidChannel) {
			h.logger.Error("list notification logs failed", zap.Error(err))
		}
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  logs,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

func parseLogFilter(r *http.Request) domain.LogFilter {
	q := r.URL.Query()
	filter := domain.LogFilter{Page: 1, Limit: service.DefaultPageSize}

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		filter.Limit = min(l, service.MaxPageSize)
	}
	if ch := q.Get("channel"); ch != "" {
		c := domain.Channel(ch)
		filter.Channel = &c
	}
	if rcpt := q.Get("recipient"); rcpt != "" {
		filter.Recipient = &rcpt
	}
	return filter
}

// Package handler exposes the notification read API over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "fowlgate/pkg/domain"
	dErrors "fowlgate/pkg/domain-errors"
	"fowlgate/pkg/platform/httputil"
	"fowlgate/pkg/platform/middleware/auth"
	"fowlgate/pkg/requestcontext"

	"fowlgate/internal/notification/models"
)

// Service is the notification surface the handler depends on.
type Service interface {
	ListForRecipient(ctx context.Context, callerID id.UserID) ([]*models.TransferNotification, error)
	MarkRead(ctx context.Context, callerID id.UserID, notificationID id.NotificationID) error
}

// Handler handles notification endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new notification Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the notification routes with the chi router. The
// caller mounts this behind the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notifications, err := h.service.ListForRecipient(ctx, auth.CallerID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "list notifications failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*models.TransferNotification{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "notification id must be a valid uuid"))
		return
	}

	if err := h.service.MarkRead(ctx, auth.CallerID(ctx), notificationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

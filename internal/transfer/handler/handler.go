// Package handler exposes the transfer protocol over HTTP.
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

	"fowlgate/internal/transfer/models"
	"fowlgate/internal/transfer/service"
)

// Service is the orchestrator surface the handler depends on.
type Service interface {
	Initiate(ctx context.Context, callerID id.UserID, in service.InitiateInput) (*models.TransferRequest, error)
	Verify(ctx context.Context, callerID id.UserID, transferID id.TransferID, v models.BirdVerificationDetails) (*models.TransferRequest, error)
	ConfirmHandover(ctx context.Context, callerID id.UserID, transferID id.TransferID, ev models.HandoverEvidence) (*models.TransferRequest, error)
	Cancel(ctx context.Context, callerID id.UserID, transferID id.TransferID, reason string) (*models.TransferRequest, error)
	Get(ctx context.Context, callerID id.UserID, transferID id.TransferID) (*models.TransferRequest, error)
	ListForParty(ctx context.Context, callerID id.UserID, activeOnly bool) ([]*models.TransferRequest, error)
	OwnershipForTransfer(ctx context.Context, callerID id.UserID, transferID id.TransferID) (*models.OwnershipRecord, error)
	OwnershipHistory(ctx context.Context, fowlID id.FowlID) ([]*models.OwnershipRecord, error)
}

// Handler handles transfer endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new transfer Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the transfer routes with the chi router. The caller
// mounts this behind the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/transfers", func(r chi.Router) {
		r.Post("/", h.handleInitiate)
		r.Get("/", h.handleList)
		r.Route("/{transferID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/verification", h.handleVerify)
			r.Post("/handover", h.handleConfirmHandover)
			r.Post("/cancellation", h.handleCancel)
			r.Get("/ownership", h.handleOwnershipRecord)
		})
	})
	r.Get("/fowls/{fowlID}/ownership-history", h.handleOwnershipHistory)
}

func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := auth.CallerID(ctx)

	req, ok := httputil.DecodeAndPrepare[InitiateTransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	t, err := h.service.Initiate(ctx, callerID, req.Input())
	if err != nil {
		h.logFailure(ctx, "initiate transfer", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTransferResponse(t))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := auth.CallerID(ctx)

	activeOnly := r.URL.Query().Get("active") != "false"
	transfers, err := h.service.ListForParty(ctx, callerID, activeOnly)
	if err != nil {
		h.logFailure(ctx, "list transfers", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"transfers": toTransferResponses(transfers)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, ok := h.transferID(w, r)
	if !ok {
		return
	}

	t, err := h.service.Get(ctx, auth.CallerID(ctx), transferID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransferResponse(t))
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, ok := h.transferID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerifyTransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	t, err := h.service.Verify(ctx, auth.CallerID(ctx), transferID, req.Details())
	if err != nil {
		h.logFailure(ctx, "verify transfer", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransferResponse(t))
}

func (h *Handler) handleConfirmHandover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, ok := h.transferID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ConfirmHandoverRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	t, err := h.service.ConfirmHandover(ctx, auth.CallerID(ctx), transferID, req.Evidence())
	if err != nil {
		h.logFailure(ctx, "confirm handover", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransferResponse(t))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, ok := h.transferID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CancelTransferRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	t, err := h.service.Cancel(ctx, auth.CallerID(ctx), transferID, req.Reason)
	if err != nil {
		h.logFailure(ctx, "cancel transfer", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTransferResponse(t))
}

func (h *Handler) handleOwnershipRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transferID, ok := h.transferID(w, r)
	if !ok {
		return
	}

	record, err := h.service.OwnershipForTransfer(ctx, auth.CallerID(ctx), transferID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleOwnershipHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fowlID, err := id.ParseFowlID(chi.URLParam(r, "fowlID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "fowl id must be a valid uuid"))
		return
	}

	history, err := h.service.OwnershipHistory(ctx, fowlID)
	if err != nil {
		h.logFailure(ctx, "ownership history", err)
		httputil.WriteError(w, err)
		return
	}
	if history == nil {
		history = []*models.OwnershipRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (h *Handler) transferID(w http.ResponseWriter, r *http.Request) (id.TransferID, bool) {
	transferID, err := id.ParseTransferID(chi.URLParam(r, "transferID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "transfer id must be a valid uuid"))
		return id.TransferID{}, false
	}
	return transferID, true
}

// logFailure keeps handler logging consistent: client errors at warn,
// everything else at error.
func (h *Handler) logFailure(ctx context.Context, op string, err error) {
	status := dErrors.ToHTTPStatus(dErrors.CodeOf(err))
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		return
	}
	h.logger.WarnContext(ctx, op+" rejected",
		"request_id", requestcontext.RequestID(ctx), "error", err)
}

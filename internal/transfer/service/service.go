// Package service orchestrates the ownership-transfer protocol: initiate,
// verify, handover, complete, cancel. All operations take the
// authenticated caller explicitly; authorization never reads ambient
// state.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "fowlgate/pkg/domain"
	dErrors "fowlgate/pkg/domain-errors"
	audit "fowlgate/pkg/platform/audit"
	"fowlgate/pkg/platform/sentinel"
	"fowlgate/pkg/requestcontext"

	notifmodels "fowlgate/internal/notification/models"
	"fowlgate/internal/transfer/metrics"
	"fowlgate/internal/transfer/models"
)

// maxUpdateRetries bounds the optimistic-concurrency retry loop. Each
// retry re-reads the transfer and re-checks preconditions against the
// fresh state.
const maxUpdateRetries = 3

// Service is the transfer orchestrator.
type Service struct {
	transfers TransferStore
	ownership OwnershipStore
	lock      ActiveLock
	registry  AssetRegistry
	notifier  NotificationDispatcher
	auditor   AuditPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithNotifier wires the notification dispatcher. Without it,
// notifications are silently skipped.
func WithNotifier(n NotificationDispatcher) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithAuditPublisher wires the audit publisher. Without it, completion
// cannot satisfy its compliance-audit obligation, so production wiring
// must always provide one.
func WithAuditPublisher(a AuditPublisher) Option {
	return func(s *Service) {
		if a != nil {
			s.auditor = a
		}
	}
}

func New(transfers TransferStore, ownership OwnershipStore, lock ActiveLock, registry AssetRegistry, opts ...Option) *Service {
	s := &Service{
		transfers: transfers,
		ownership: ownership,
		lock:      lock,
		registry:  registry,
		notifier:  nopNotifier{},
		auditor:   nopAuditor{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// InitiateInput carries the seller's submission.
type InitiateInput struct {
	FowlID      id.FowlID
	BuyerID     *id.UserID
	Price       float64
	Currency    id.Currency
	Location    string
	LocationLat *float64
	LocationLng *float64
	Details     models.BirdTransferDetails
}

// Initiate creates a transfer request for a fowl the caller owns. The
// fowl must have no other active transfer.
func (s *Service) Initiate(ctx context.Context, callerID id.UserID, in InitiateInput) (*models.TransferRequest, error) {
	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveInitiate(start)
	}

	fowl, err := s.registry.Get(ctx, in.FowlID)
	if err != nil {
		return nil, err
	}
	if fowl.OwnerID != callerID {
		return nil, dErrors.New(dErrors.CodeOwnership, "only the current owner can transfer this fowl")
	}

	if _, err := s.transfers.FindActiveByFowl(ctx, in.FowlID); err == nil {
		return nil, dErrors.New(dErrors.CodeDuplicateTransfer, "fowl already has an active transfer")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check active transfers")
	}

	transferID := id.TransferID(uuid.New())
	t, err := models.NewTransferRequest(
		transferID, in.FowlID, callerID, in.BuyerID,
		in.Price, in.Currency, in.Location, in.Details,
		newFraudPreventionData(ctx), requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	t.TransferLocationLat = in.LocationLat
	t.TransferLocationLng = in.LocationLng

	// The lock fails duplicate initiations fast; the store's conditional
	// create is the actual guarantee, so lock infrastructure errors are
	// logged and tolerated.
	lockHeld := true
	if err := s.lock.Acquire(ctx, in.FowlID, transferID); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicateTransfer, "fowl already has an active transfer")
		}
		lockHeld = false
		s.logger.WarnContext(ctx, "active-transfer lock unavailable, relying on store constraint",
			"fowl_id", in.FowlID.String(), "error", err)
	}

	if err := s.transfers.Create(ctx, t); err != nil {
		// Only undo a lock this initiation actually took: after a
		// failed-open acquire the key may belong to the concurrent
		// transfer that caused the duplicate.
		if lockHeld {
			s.releaseLock(ctx, in.FowlID)
		}
		if errors.Is(err, sentinel.ErrDuplicate) {
			return nil, dErrors.New(dErrors.CodeDuplicateTransfer, "fowl already has an active transfer")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create transfer")
	}

	_ = s.auditor.Emit(ctx, audit.Event{
		ActorID:    callerID,
		TransferID: t.ID,
		FowlID:     t.FowlID,
		Action:     string(audit.EventTransferInitiated),
	})

	if t.BuyerID != nil {
		s.notifier.Dispatch(ctx, *t.BuyerID, callerID, t.ID, t.FowlID, notifmodels.TypeTransferInitiated)
	}
	if s.metrics != nil {
		s.metrics.IncrementInitiated()
	}
	return t, nil
}

// Verify records the buyer's field-by-field inspection. The aggregate
// outcome is recomputed server-side; a full match moves the transfer to
// BUYER_VERIFIED, any mismatch raises a dispute.
func (s *Service) Verify(ctx context.Context, callerID id.UserID, transferID id.TransferID, v models.BirdVerificationDetails) (*models.TransferRequest, error) {
	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveVerify(start)
	}

	var t *models.TransferRequest
	err := s.withRetry(ctx, transferID, func(fresh *models.TransferRequest) error {
		if err := fresh.CanVerify(callerID); err != nil {
			return err
		}
		fresh.ApplyVerification(callerID, v, requestcontext.Now(ctx))
		t = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	disputed := t.Status == models.StatusDisputed
	action := audit.EventTransferVerified
	notice := notifmodels.TypeVerificationCompleted
	if disputed {
		action = audit.EventTransferDisputed
		notice = notifmodels.TypeDisputeRaised
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		ActorID:    callerID,
		TransferID: t.ID,
		FowlID:     t.FowlID,
		Action:     string(action),
	}); err != nil {
		// Dispute events are compliance category; a failed append fails
		// the request even though the dispute itself is persisted.
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "record verification audit")
	}

	s.notifier.Dispatch(ctx, t.SellerID, callerID, t.ID, t.FowlID, notice)
	if s.metrics != nil {
		if disputed {
			s.metrics.IncrementDisputed()
		} else {
			s.metrics.IncrementVerified()
		}
	}
	return t, nil
}

// ConfirmHandover merges the caller's handover evidence. When the second
// party confirms, the transfer completes: the row is finalized, the
// ownership record appended, compliance audit written and the registry
// owner updated, in that order.
func (s *Service) ConfirmHandover(ctx context.Context, callerID id.UserID, transferID id.TransferID, ev models.HandoverEvidence) (*models.TransferRequest, error) {
	start := time.Now()
	if s.metrics != nil {
		defer s.metrics.ObserveHandover(start)
	}

	var (
		t         *models.TransferRequest
		completed bool
	)
	err := s.withRetry(ctx, transferID, func(fresh *models.TransferRequest) error {
		if err := fresh.CanConfirmHandover(callerID); err != nil {
			return err
		}
		completed = fresh.ApplyHandover(fresh.PartyRole(callerID), ev, requestcontext.Now(ctx))
		t = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !completed {
		_ = s.auditor.Emit(ctx, audit.Event{
			ActorID:    callerID,
			TransferID: t.ID,
			FowlID:     t.FowlID,
			Action:     string(audit.EventHandoverConfirmed),
		})
		s.notifyCounterparty(ctx, t, callerID, notifmodels.TypeHandoverConfirmed)
		return t, nil
	}

	if err := s.finalizeCompletion(ctx, callerID, t); err != nil {
		return nil, err
	}
	return t, nil
}

// finalizeCompletion runs the post-persist completion sequence. The
// COMPLETED row is already durable; every failure past this point is a
// partial completion that operators must reconcile, never a rollback.
func (s *Service) finalizeCompletion(ctx context.Context, callerID id.UserID, t *models.TransferRequest) error {
	now := requestcontext.Now(ctx)
	record := &models.OwnershipRecord{
		ID:               t.ID,
		FowlID:           t.FowlID,
		PreviousOwnerID:  t.SellerID,
		NewOwnerID:       *t.BuyerID,
		TransferID:       t.ID,
		TransferDate:     now,
		Price:            t.AgreedPrice,
		Currency:         t.Currency,
		Location:         t.TransferLocation,
		VerificationHash: verificationHash(t.FowlID, t.SellerID, *t.BuyerID, t.InitiatedDate),
	}
	if err := s.ownership.Append(ctx, record); err != nil && !errors.Is(err, sentinel.ErrDuplicate) {
		return s.partialCompletion(ctx, t, "append ownership record", err)
	}

	for _, action := range []audit.AuditEvent{audit.EventTransferCompleted, audit.EventOwnershipRecorded} {
		if err := s.auditor.Emit(ctx, audit.Event{
			ActorID:    callerID,
			TransferID: t.ID,
			FowlID:     t.FowlID,
			Action:     string(action),
		}); err != nil {
			return s.partialCompletion(ctx, t, "compliance audit", err)
		}
	}

	if err := s.registry.SetOwner(ctx, t.FowlID, *t.BuyerID); err != nil {
		return s.partialCompletion(ctx, t, "update registry owner", err)
	}

	s.releaseLock(ctx, t.FowlID)
	s.notifier.Dispatch(ctx, t.SellerID, callerID, t.ID, t.FowlID, notifmodels.TypeTransferCompleted)
	s.notifier.Dispatch(ctx, *t.BuyerID, callerID, t.ID, t.FowlID, notifmodels.TypeTransferCompleted)
	if s.metrics != nil {
		s.metrics.IncrementCompleted()
	}
	return nil
}

func (s *Service) partialCompletion(ctx context.Context, t *models.TransferRequest, step string, err error) error {
	s.logger.ErrorContext(ctx, "CRITICAL: transfer completed but follow-up step failed",
		"transfer_id", t.ID.String(),
		"fowl_id", t.FowlID.String(),
		"step", step,
		"error", err,
	)
	if s.metrics != nil {
		s.metrics.IncrementPartialCompletion()
	}
	return dErrors.Wrap(err, dErrors.CodePartialCompletion, "transfer completed but "+step+" failed")
}

// Cancel withdraws a non-terminal transfer. Seller only.
func (s *Service) Cancel(ctx context.Context, callerID id.UserID, transferID id.TransferID, reason string) (*models.TransferRequest, error) {
	var t *models.TransferRequest
	err := s.withRetry(ctx, transferID, func(fresh *models.TransferRequest) error {
		if err := fresh.CanCancel(callerID); err != nil {
			return err
		}
		fresh.ApplyCancellation(reason)
		t = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.releaseLock(ctx, t.FowlID)
	_ = s.auditor.Emit(ctx, audit.Event{
		ActorID:    callerID,
		TransferID: t.ID,
		FowlID:     t.FowlID,
		Action:     string(audit.EventTransferCancelled),
		Reason:     reason,
	})
	if t.BuyerID != nil {
		s.notifier.Dispatch(ctx, *t.BuyerID, callerID, t.ID, t.FowlID, notifmodels.TypeTransferCancelled)
	}
	if s.metrics != nil {
		s.metrics.IncrementCancelled()
	}
	return t, nil
}

// Get returns a transfer to one of its parties.
func (s *Service) Get(ctx context.Context, callerID id.UserID, transferID id.TransferID) (*models.TransferRequest, error) {
	t, err := s.load(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if !t.IsParty(callerID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller is not a party to this transfer")
	}
	return t, nil
}

// ListForParty returns the caller's transfers, newest first.
func (s *Service) ListForParty(ctx context.Context, callerID id.UserID, activeOnly bool) ([]*models.TransferRequest, error) {
	out, err := s.transfers.ListByParty(ctx, callerID, activeOnly)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list transfers")
	}
	return out, nil
}

// OwnershipForTransfer returns the ownership record of a completed
// transfer, visible to its parties.
func (s *Service) OwnershipForTransfer(ctx context.Context, callerID id.UserID, transferID id.TransferID) (*models.OwnershipRecord, error) {
	t, err := s.load(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if !t.IsParty(callerID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller is not a party to this transfer")
	}
	record, err := s.ownership.FindByTransfer(ctx, transferID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "transfer has no ownership record")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find ownership record")
	}
	return record, nil
}

// OwnershipHistory returns a fowl's provenance chain, oldest first.
// History is readable by any authenticated user; it is the buyer's
// pre-purchase due-diligence tool.
func (s *Service) OwnershipHistory(ctx context.Context, fowlID id.FowlID) ([]*models.OwnershipRecord, error) {
	out, err := s.ownership.ListByFowl(ctx, fowlID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list ownership records")
	}
	return out, nil
}

// withRetry loads the transfer, applies fn and writes it back, retrying
// on version conflicts with a fresh read each time. Preconditions inside
// fn run against the fresh state on every attempt.
func (s *Service) withRetry(ctx context.Context, transferID id.TransferID, fn func(*models.TransferRequest) error) error {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		t, err := s.load(ctx, transferID)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		err = s.transfers.Update(ctx, t)
		if err == nil {
			return nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.IncrementUpdateConflict()
			}
			continue
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "transfer not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "update transfer")
	}
	return dErrors.New(dErrors.CodeConflict, "transfer was modified concurrently, retry the request")
}

func (s *Service) load(ctx context.Context, transferID id.TransferID) (*models.TransferRequest, error) {
	t, err := s.transfers.FindByID(ctx, transferID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "transfer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find transfer")
	}
	return t, nil
}

func (s *Service) releaseLock(ctx context.Context, fowlID id.FowlID) {
	if err := s.lock.Release(ctx, fowlID); err != nil {
		s.logger.WarnContext(ctx, "failed to release active-transfer lock",
			"fowl_id", fowlID.String(), "error", err)
	}
}

func (s *Service) notifyCounterparty(ctx context.Context, t *models.TransferRequest, callerID id.UserID, notice notifmodels.TransferNotificationType) {
	switch t.PartyRole(callerID) {
	case models.RoleSeller:
		if t.BuyerID != nil {
			s.notifier.Dispatch(ctx, *t.BuyerID, callerID, t.ID, t.FowlID, notice)
		}
	case models.RoleBuyer:
		s.notifier.Dispatch(ctx, t.SellerID, callerID, t.ID, t.FowlID, notice)
	}
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(context.Context, id.UserID, id.UserID, id.TransferID, id.FowlID, notifmodels.TransferNotificationType) {
}

type nopAuditor struct{}

func (nopAuditor) Emit(context.Context, audit.Event) error { return nil }

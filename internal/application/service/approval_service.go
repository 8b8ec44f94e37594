package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/harborline/freightdesk/internal/application/port"
	"github.com/harborline/freightdesk/internal/backend"
	"github.com/harborline/freightdesk/internal/domain/entity"
	"github.com/harborline/freightdesk/internal/domain/reconcile"
	"github.com/harborline/freightdesk/internal/domain/workflow"
)

// ErrOverApprovalUnconfirmed is returned when at least one line's approved
// amount exceeds its requested amount and the caller has not acknowledged
// the over-approval warning. The bound is soft: acknowledging lets the
// commit through.
var ErrOverApprovalUnconfirmed = errors.New("over-approved lines require confirmation")

// ApprovalService is the reconciliation engine's stateful boundary: it
// fetches pending masters, derives reviews, and commits approve/reject
// decisions with one consolidated update per decision.
type ApprovalService interface {
	List(ctx context.Context, q backend.ListQuery) ([]entity.FundRequestMaster, error)
	Get(ctx context.Context, id int64) (*entity.FundRequestMaster, error)
	Delete(ctx context.Context, id int64, actor entity.Identity) error

	OpenReview(ctx context.Context, masterID int64) (*reconcile.Review, error)
	Approve(ctx context.Context, review *reconcile.Review, actor entity.Identity, confirmOverApproval bool) (*entity.FundRequestMaster, error)
	Reject(ctx context.Context, review *reconcile.Review, actor entity.Identity) (*entity.FundRequestMaster, error)

	History(ctx context.Context, masterID int64) ([]*entity.ActionHistory, error)
}

type approvalServiceImpl struct {
	fundAPI  port.FundRequestAPI
	refData  RefDataService
	history  port.HistoryRepository
	notifier port.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewApprovalService creates the approval reconciliation service.
func NewApprovalService(
	fundAPI port.FundRequestAPI,
	refData RefDataService,
	history port.HistoryRepository,
	notifier port.Notifier,
	logger *zap.Logger,
) ApprovalService {
	return &approvalServiceImpl{
		fundAPI:  fundAPI,
		refData:  refData,
		history:  history,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *approvalServiceImpl) List(ctx context.Context, q backend.ListQuery) ([]entity.FundRequestMaster, error) {
	masters, err := s.fundAPI.ListFundRequests(ctx, q)
	if err != nil {
		s.logger.Error("Failed to list fund requests", zap.Error(err))
		return nil, err
	}
	return masters, nil
}

func (s *approvalServiceImpl) Get(ctx context.Context, id int64) (*entity.FundRequestMaster, error) {
	master, err := s.fundAPI.GetFundRequest(ctx, id)
	if err != nil {
		s.logger.Error("Failed to fetch fund request", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return master, nil
}

func (s *approvalServiceImpl) Delete(ctx context.Context, id int64, actor entity.Identity) error {
	if actor.IsZero() {
		return ErrMissingIdentity
	}
	if err := s.fundAPI.DeleteFundRequest(ctx, id); err != nil {
		s.logger.Error("Failed to delete fund request", zap.Int64("id", id), zap.Error(err))
		return err
	}
	s.recordHistory(ctx, id, entity.ActionDeleted, actor, "master deleted; lines cascade server-side")
	return nil
}

// OpenReview fetches the master with its lines and derives the review with
// every approved amount defaulted to the requested amount.
func (s *approvalServiceImpl) OpenReview(ctx context.Context, masterID int64) (*reconcile.Review, error) {
	master, err := s.fundAPI.GetFundRequest(ctx, masterID)
	if err != nil {
		return nil, err
	}
	return reconcile.NewReview(*master)
}

func (s *approvalServiceImpl) Approve(ctx context.Context, review *reconcile.Review, actor entity.Identity, confirmOverApproval bool) (*entity.FundRequestMaster, error) {
	if actor.IsZero() {
		return nil, ErrMissingIdentity
	}

	machine, err := workflow.NewApprovalLifecycle(review.Status())
	if err != nil {
		return nil, err
	}
	if !machine.CanFire(workflow.TriggerApprove) {
		return nil, fmt.Errorf("%w: fund request %d is %s",
			workflow.ErrInvalidTransition, review.MasterID(), review.Status())
	}

	if over := review.OverApprovedLines(); len(over) > 0 && !confirmOverApproval {
		return nil, fmt.Errorf("%w: lines %v", ErrOverApprovalUnconfirmed, over)
	}

	if err := machine.Fire(ctx, workflow.TriggerApprove); err != nil {
		return nil, err
	}

	now := s.now()
	totals := review.Totals()
	master := review.Master()
	master.Lines = review.ApplyAmounts()
	for i := range master.Lines {
		master.Lines[i].ApprovalStatus = entity.StatusApproved
	}
	master.ApprovalStatus = entity.StatusApproved
	master.ApprovedBy = &actor.UserID
	master.ApprovedOn = &now
	master.TotalApprovedAmount = totals.Approved

	updated, err := s.fundAPI.UpdateFundRequest(ctx, master)
	if err != nil {
		// Local state untouched; a CONFLICT kind means a stale version and
		// the caller should reload.
		s.logger.Error("Approval commit failed",
			zap.Int64("master_id", master.CashFundRequestID),
			zap.String("kind", string(backend.KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	s.recordHistory(ctx, updated.CashFundRequestID, entity.ActionApproved, actor,
		fmt.Sprintf("approved %.2f of %.2f requested", totals.Approved, totals.Requested))
	s.notifyCreator(ctx, updated)

	s.logger.Info("Fund request approved",
		zap.Int64("master_id", updated.CashFundRequestID),
		zap.Float64("total_approved", totals.Approved),
		zap.Float64("difference", totals.Difference))
	return updated, nil
}

func (s *approvalServiceImpl) Reject(ctx context.Context, review *reconcile.Review, actor entity.Identity) (*entity.FundRequestMaster, error) {
	if actor.IsZero() {
		return nil, ErrMissingIdentity
	}

	machine, err := workflow.NewApprovalLifecycle(review.Status())
	if err != nil {
		return nil, err
	}
	if err := machine.Fire(ctx, workflow.TriggerReject); err != nil {
		return nil, fmt.Errorf("fund request %d: %w", review.MasterID(), err)
	}

	review.ZeroFill()
	master := review.Master()
	master.Lines = review.ApplyAmounts()
	for i := range master.Lines {
		master.Lines[i].ApprovalStatus = entity.StatusRejected
	}
	master.ApprovalStatus = entity.StatusRejected
	master.ApprovedBy = nil
	master.ApprovedOn = nil
	master.TotalApprovedAmount = 0

	updated, err := s.fundAPI.UpdateFundRequest(ctx, master)
	if err != nil {
		s.logger.Error("Rejection commit failed",
			zap.Int64("master_id", master.CashFundRequestID),
			zap.String("kind", string(backend.KindOf(err))),
			zap.Error(err))
		return nil, err
	}

	s.recordHistory(ctx, updated.CashFundRequestID, entity.ActionRejected, actor, "all approved amounts zeroed")
	s.notifyCreator(ctx, updated)

	s.logger.Info("Fund request rejected", zap.Int64("master_id", updated.CashFundRequestID))
	return updated, nil
}

func (s *approvalServiceImpl) History(ctx context.Context, masterID int64) ([]*entity.ActionHistory, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListByMaster(ctx, masterID)
}

func (s *approvalServiceImpl) recordHistory(ctx context.Context, masterID int64, action entity.ActionType, actor entity.Identity, detail string) {
	if s.history == nil {
		return
	}
	h := &entity.ActionHistory{
		MasterID:  masterID,
		Action:    action,
		ActorID:   actor.UserID,
		ActorName: actor.UserName,
		Detail:    detail,
		CreatedAt: s.now(),
	}
	if err := s.history.Record(ctx, h); err != nil {
		s.logger.Warn("Failed to record action history",
			zap.Int64("master_id", masterID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

func (s *approvalServiceImpl) notifyCreator(ctx context.Context, master *entity.FundRequestMaster) {
	if s.notifier == nil {
		return
	}
	creator, err := s.refData.UserByID(ctx, master.CreatedBy)
	if err != nil {
		s.logger.Warn("Creator lookup failed, skipping notification",
			zap.Int64("created_by", master.CreatedBy), zap.Error(err))
		return
	}
	s.notifier.DecisionMade(ctx, *creator, master.CashFundRequestID, master.ApprovalStatus, master.TotalApprovedAmount)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harborline/freightdesk/internal/application/port"
	"github.com/harborline/freightdesk/internal/backend"
	"github.com/harborline/freightdesk/internal/domain/entity"
)

// ErrMissingIdentity is returned when an operation requires a resolved user
// and none was supplied. No network call is made in that case.
var ErrMissingIdentity = errors.New("current user identity is required")

// SubmissionResult is what the caller gets back after every line persisted.
type SubmissionResult struct {
	Lines          []entity.FundRequestLine `json:"lines"`
	TotalRequested float64                  `json:"totalRequested"`
}

// SubmissionService turns a validated draft session into persisted records.
// All per-line backend calls are issued concurrently; the submission
// succeeds only if every call succeeds. Lines that were persisted before a
// failing sibling are NOT rolled back — the error names the failing line so
// the user can reconcile and retry.
type SubmissionService interface {
	Submit(ctx context.Context, session *DraftSession, actor entity.Identity) (*SubmissionResult, error)
}

type submissionServiceImpl struct {
	fundAPI  port.FundRequestAPI
	refData  RefDataService
	history  port.HistoryRepository
	notifier port.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewSubmissionService creates the submission service.
func NewSubmissionService(
	fundAPI port.FundRequestAPI,
	refData RefDataService,
	history port.HistoryRepository,
	notifier port.Notifier,
	logger *zap.Logger,
) SubmissionService {
	return &submissionServiceImpl{
		fundAPI:  fundAPI,
		refData:  refData,
		history:  history,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *submissionServiceImpl) Submit(ctx context.Context, session *DraftSession, actor entity.Identity) (*SubmissionResult, error) {
	if actor.IsZero() {
		return nil, ErrMissingIdentity
	}
	if verr := session.Validate(); verr != nil {
		return nil, verr
	}

	now := s.now()
	saved := make([]entity.FundRequestLine, len(session.Lines))

	g, gctx := errgroup.WithContext(ctx)
	for i, draft := range session.Lines {
		i, draft := i, draft
		g.Go(func() error {
			payload := draft.ToLine(session.MasterID, session.RequestorID, actor.UserID, now)
			var (
				line *entity.FundRequestLine
				err  error
			)
			if _, persisted := draft.Ref.Persisted(); session.Mode == ModeEdit && persisted {
				line, err = s.fundAPI.UpdateFundRequestLine(gctx, payload)
			} else {
				line, err = s.fundAPI.CreateFundRequestLine(gctx, payload)
			}
			if err != nil {
				status := backend.StatusOf(err)
				if status > 0 {
					return fmt.Errorf("line %d failed (HTTP %d): %w", i+1, status, err)
				}
				return fmt.Errorf("line %d failed: %w", i+1, err)
			}
			saved[i] = *line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Fund request submission failed",
			zap.String("session_id", session.ID.String()),
			zap.String("mode", string(session.Mode)),
			zap.Error(err))
		return nil, err
	}

	// Resolve draft refs to server ids now that every line persisted.
	for i, draft := range session.Lines {
		draft.Ref = draft.Ref.Resolve(saved[i].InternalFundsRequestCashID)
		draft.Version = saved[i].Version
	}

	result := &SubmissionResult{Lines: saved, TotalRequested: session.TotalRequested()}
	masterID := saved[0].CashFundRequestMasterID

	s.recordHistory(ctx, masterID, actor, fmt.Sprintf("%s: %d line(s), total %.2f", session.Mode, len(saved), result.TotalRequested))
	s.notifyApprover(ctx, session, result)

	s.logger.Info("Fund request submitted",
		zap.String("session_id", session.ID.String()),
		zap.String("mode", string(session.Mode)),
		zap.Int("lines", len(saved)),
		zap.Float64("total_requested", result.TotalRequested))
	return result, nil
}

func (s *submissionServiceImpl) recordHistory(ctx context.Context, masterID int64, actor entity.Identity, detail string) {
	if s.history == nil {
		return
	}
	h := &entity.ActionHistory{
		MasterID:  masterID,
		Action:    entity.ActionSubmitted,
		ActorID:   actor.UserID,
		ActorName: actor.UserName,
		Detail:    detail,
		CreatedAt: s.now(),
	}
	if err := s.history.Record(ctx, h); err != nil {
		s.logger.Warn("Failed to record submission history", zap.Error(err))
	}
}

func (s *submissionServiceImpl) notifyApprover(ctx context.Context, session *DraftSession, result *SubmissionResult) {
	if s.notifier == nil {
		return
	}
	approver, err := s.refData.UserByID(ctx, session.RequestorID)
	if err != nil {
		s.logger.Warn("Approver lookup failed, skipping notification",
			zap.Int64("requestor_id", session.RequestorID), zap.Error(err))
		return
	}
	jobNumber := ""
	if len(session.Lines) > 0 {
		jobNumber = session.Lines[0].JobNumber
	}
	s.notifier.SubmissionCreated(ctx, *approver, jobNumber, len(result.Lines), result.TotalRequested)
}

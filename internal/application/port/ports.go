// Package port defines the interfaces the application services depend on,
// implemented by the backend client, the history repository and the
// notification adapter.
package port

import (
	"context"

	"github.com/harborline/freightdesk/internal/backend"
	"github.com/harborline/freightdesk/internal/domain/entity"
)

// FundRequestAPI is the remote backend surface for fund request records.
type FundRequestAPI interface {
	ListFundRequests(ctx context.Context, q backend.ListQuery) ([]entity.FundRequestMaster, error)
	GetFundRequest(ctx context.Context, id int64) (*entity.FundRequestMaster, error)
	CreateFundRequestLine(ctx context.Context, line entity.FundRequestLine) (*entity.FundRequestLine, error)
	UpdateFundRequestLine(ctx context.Context, line entity.FundRequestLine) (*entity.FundRequestLine, error)
	UpdateFundRequest(ctx context.Context, master entity.FundRequestMaster) (*entity.FundRequestMaster, error)
	DeleteFundRequest(ctx context.Context, id int64) error
}

// ReferenceDataAPI is the remote backend surface for lookup rows.
type ReferenceDataAPI interface {
	ListJobs(ctx context.Context, q backend.ListQuery) ([]entity.Job, error)
	ListChargeHeads(ctx context.Context, q backend.ListQuery) ([]entity.ChargeHead, error)
	ListParties(ctx context.Context, q backend.ListQuery) ([]entity.Party, error)
	ListUsers(ctx context.Context, q backend.ListQuery) ([]entity.User, error)
}

// HistoryRepository persists the local action audit trail.
type HistoryRepository interface {
	Record(ctx context.Context, h *entity.ActionHistory) error
	ListByMaster(ctx context.Context, masterID int64) ([]*entity.ActionHistory, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ActionHistory, error)
}

// Notifier delivers best-effort workflow notifications. Implementations
// must never block the workflow on delivery failure.
type Notifier interface {
	SubmissionCreated(ctx context.Context, approver entity.User, jobNumber string, lineCount int, totalRequested float64)
	DecisionMade(ctx context.Context, creator entity.User, masterID int64, status entity.ApprovalStatus, totalApproved float64)
}

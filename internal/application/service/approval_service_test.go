package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborline/freightdesk/internal/backend"
	"github.com/harborline/freightdesk/internal/domain/entity"
	"github.com/harborline/freightdesk/internal/domain/workflow"
)

func pendingFundRequest(status entity.ApprovalStatus) *entity.FundRequestMaster {
	return &entity.FundRequestMaster{
		CashFundRequestID:    9001,
		JobID:                100,
		JobNumber:            "J-100",
		TotalRequestedAmount: 7000,
		ApprovalStatus:       status,
		RequestedTo:          42,
		CreatedBy:            7,
		Version:              4,
		Lines: []entity.FundRequestLine{
			{InternalFundsRequestCashID: 1, CashFundRequestMasterID: 9001, JobID: 100, HeadCoaID: 11, RequestedAmount: 5000, ApprovalStatus: status, Version: 1},
			{InternalFundsRequestCashID: 2, CashFundRequestMasterID: 9001, JobID: 100, HeadCoaID: 12, RequestedAmount: 2000, ApprovalStatus: status, Version: 1},
		},
	}
}

func newApprovalFixture(fundAPI *mockFundAPI) (ApprovalService, *mockHistory, *mockNotifier) {
	if fundAPI == nil {
		fundAPI = &mockFundAPI{}
	}
	history := &mockHistory{}
	notifier := &mockNotifier{}
	svc := NewApprovalService(fundAPI, testRefData(), history, notifier, zap.NewNop())
	if impl, ok := svc.(*approvalServiceImpl); ok {
		impl.now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }
	}
	return svc, history, notifier
}

func TestApprove_WithReduction(t *testing.T) {
	fundAPI := &mockFundAPI{
		getFunc: func(ctx context.Context, id int64) (*entity.FundRequestMaster, error) {
			return pendingFundRequest(entity.StatusPending), nil
		},
	}
	svc, history, notifier := newApprovalFixture(fundAPI)
	ctx := context.Background()

	review, err := svc.OpenReview(ctx, 9001)
	require.NoError(t, err)
	require.NoError(t, review.SetApprovedAmount(1, 4000))

	updated, err := svc.Approve(ctx, review, testActor, false)
	require.NoError(t, err)

	// One consolidated update carries the decision.
	require.Len(t, fundAPI.updatedMasters, 1)
	sent := fundAPI.updatedMasters[0]
	assert.Equal(t, entity.StatusApproved, sent.ApprovalStatus)
	assert.Equal(t, 6000.0, sent.TotalApprovedAmount)
	require.NotNil(t, sent.ApprovedBy)
	assert.Equal(t, int64(7), *sent.ApprovedBy)
	require.NotNil(t, sent.ApprovedOn)
	assert.Equal(t, time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC), *sent.ApprovedOn)
	assert.Equal(t, int64(4), sent.Version)

	require.Len(t, sent.Lines, 2)
	assert.Equal(t, 4000.0, sent.Lines[0].ApprovedAmount)
	assert.Equal(t, 2000.0, sent.Lines[1].ApprovedAmount)
	for _, l := range sent.Lines {
		assert.Equal(t, entity.StatusApproved, l.ApprovalStatus)
	}

	assert.Equal(t, entity.StatusApproved, updated.ApprovalStatus)

	require.Len(t, history.records, 1)
	assert.Equal(t, entity.ActionApproved, history.records[0].Action)
	assert.Contains(t, history.records[0].Detail, "6000.00")

	require.Len(t, notifier.decisions, 1)
	assert.Equal(t, int64(7), notifier.decisions[0].Creator.UserID)
	assert.Equal(t, entity.StatusApproved, notifier.decisions[0].Status)
	assert.Equal(t, 6000.0, notifier.decisions[0].Total)
}

func TestApprove_OverApprovalRequiresConfirmation(t *testing.T) {
	fundAPI := &mockFundAPI{
		getFunc: func(ctx context.Context, id int64) (*entity.FundRequestMaster, error) {
			return pendingFundRequest(entity.StatusPending), nil
		},
	}
	svc, _, _ := newApprovalFixture(fundAPI)
	ctx := context.Background()

	review, err := svc.OpenReview(ctx, 9001)
	require.NoError(t, err)
	require.NoError(t, review.SetApprovedAmount(2, 2500))

	_, err = svc.Approve(ctx, review, testActor, false)
	require.ErrorIs(t, err, ErrOverApprovalUnconfirmed)
	assert.Contains(t, err.Error(), "[2]")
	assert.Empty(t, fundAPI.updatedMasters)

	// Acknowledging the warning lets the commit through.
	updated, err := svc.Approve(ctx, review, testActor, true)
	require.NoError(t, err)
	assert.Equal(t, 7500.0, updated.TotalApprovedAmount)
}

func TestApprove_NonPendingIsRefused(t *testing.T) {
	for _, status := range []entity.ApprovalStatus{entity.StatusApproved, entity.StatusRejected, entity.StatusPaid} {
		fundAPI := &mockFundAPI{
			getFunc: func(ctx context.Context, id int64) (*entity.FundRequestMaster, error) {
				return pendingFundRequest(status), nil
			},
		}
		svc, _, _ := newApprovalFixture(fundAPI)
		ctx := context.Background()

		review, err := svc.OpenReview(ctx, 9001)
		require.NoError(t, err)

		_, err = svc.Approve(ctx, review, testActor, false)
		assert.ErrorIs(t, err, workflow.ErrInvalidTransition, "status %s", status)
		assert.Empty(t, fundAPI.updatedMasters, "status %s", status)
	}
}

func TestApprove_StaleVersionConflictPassesThrough(t *testing.T) {
	fundAPI := &mockFundAPI{
		getFunc: func(ctx context.Context, id int64) (*entity.FundRequestMaster, error) {
			return pendingFundRequest(entity.StatusPending), nil
		},
		updateFunc: func(ctx context.Context, master entity.FundRequestMaster) (*entity.FundRequestMaster, error) {
			return nil, &backend.APIError{Kind: backend.KindConflict, StatusCode: 409, Message: "version mismatch"}
		},
	}
	svc, history, notifier := newApprovalFixture(fundAPI)
	ctx := context.Background()

	review, err := svc.OpenReview(ctx, 9001)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, review, testActor, false)
	require.Error(t, err)
	assert.Equal(t, backend.KindConflict, backend.KindOf(err))

	// The review is untouched and can be retried after a reload.
	assert.Equal(t, entity.StatusPending, review.Status())
	assert.Empty(t, history.records)
	assert.Empty(t, notifier.decisions)
}

func TestApprove_MissingIdentity(t *testing.T) {
	fundAPI := &mockFundAPI{
		getFunc: func(ctx context.Context, id int64) (*entity.FundRequestMaster, error) {
			return pendingFundRequest(entity.StatusPending), nil
		},
	}
	svc, _, _ := newApprovalFixture(fundAPI)
	ctx := context.Background()

	review, err := svc.OpenReview(ctx, 9001)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, review, entity.Identity{}, false)
	assert.ErrorIs(t, err, ErrMissingIdentity)
	assert.Empty(t, fundAPI.updatedMasters)
}

func TestReject_ZeroesEveryAmount(t *testing.T) {
	fundAPI := &mockFundAPI{
		getFunc: func(ctx context.Context, id int64) (*entity.FundRequestMaster, error) {
			return pendingFundRequest(entity.StatusPending), nil
		},
	}
	svc, history, notifier := newApprovalFixture(fundAPI)
	ctx := context.Background()

	review, err := svc.OpenReview(ctx, 9001)
	require.NoError(t, err)
	// Amounts entered before the decision flips do not survive a reject.
	require.NoError(t, review.SetApprovedAmount(1, 4000))

	updated, err := svc.Reject(ctx, review, testActor)
	require.NoError(t, err)

	require.Len(t, fundAPI.updatedMasters, 1)
	sent := fundAPI.updatedMasters[0]
	assert.Equal(t, entity.StatusRejected, sent.ApprovalStatus)
	assert.Equal(t, 0.0, sent.TotalApprovedAmount)
	assert.Nil(t, sent.ApprovedBy)
	assert.Nil(t, sent.ApprovedOn)
	for _, l := range sent.Lines {
		assert.Equal(t, 0.0, l.ApprovedAmount)
		assert.Equal(t, entity.StatusRejected, l.ApprovalStatus)
	}

	assert.Equal(t, entity.StatusRejected, updated.ApprovalStatus)

	require.Len(t, history.records, 1)
	assert.Equal(t, entity.ActionRejected, history.records[0].Action)

	require.Len(t, notifier.decisions, 1)
	assert.Equal(t, entity.StatusRejected, notifier.decisions[0].Status)
	assert.Equal(t, 0.0, notifier.decisions[0].Total)
}

func TestReject_NonPendingIsRefused(t *testing.T) {
	fundAPI := &mockFundAPI{
		getFunc: func(ctx context.Context, id int64) (*entity.FundRequestMaster, error) {
			return pendingFundRequest(entity.StatusApproved), nil
		},
	}
	svc, _, _ := newApprovalFixture(fundAPI)
	ctx := context.Background()

	review, err := svc.OpenReview(ctx, 9001)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, review, testActor)
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	assert.Empty(t, fundAPI.updatedMasters)
}

func TestDelete_RecordsHistory(t *testing.T) {
	fundAPI := &mockFundAPI{}
	svc, history, _ := newApprovalFixture(fundAPI)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, 9001, testActor))
	assert.Equal(t, []int64{9001}, fundAPI.deletedIDs)
	require.Len(t, history.records, 1)
	assert.Equal(t, entity.ActionDeleted, history.records[0].Action)
	assert.Equal(t, int64(9001), history.records[0].MasterID)

	err := svc.Delete(ctx, 9002, entity.Identity{})
	assert.ErrorIs(t, err, ErrMissingIdentity)
	assert.Equal(t, []int64{9001}, fundAPI.deletedIDs)
}

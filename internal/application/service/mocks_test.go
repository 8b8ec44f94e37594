package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/harborline/freightdesk/internal/backend"
	"github.com/harborline/freightdesk/internal/domain/entity"
)

// Function-field mocks for the service ports.

type mockFundAPI struct {
	mu sync.Mutex

	listFunc       func(ctx context.Context, q backend.ListQuery) ([]entity.FundRequestMaster, error)
	getFunc        func(ctx context.Context, id int64) (*entity.FundRequestMaster, error)
	createLineFunc func(ctx context.Context, line entity.FundRequestLine) (*entity.FundRequestLine, error)
	updateLineFunc func(ctx context.Context, line entity.FundRequestLine) (*entity.FundRequestLine, error)
	updateFunc     func(ctx context.Context, master entity.FundRequestMaster) (*entity.FundRequestMaster, error)
	deleteFunc     func(ctx context.Context, id int64) error

	createdLines   []entity.FundRequestLine
	updatedLines   []entity.FundRequestLine
	updatedMasters []entity.FundRequestMaster
	deletedIDs     []int64
}

func (m *mockFundAPI) ListFundRequests(ctx context.Context, q backend.ListQuery) ([]entity.FundRequestMaster, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return nil, nil
}

func (m *mockFundAPI) GetFundRequest(ctx context.Context, id int64) (*entity.FundRequestMaster, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &entity.FundRequestMaster{CashFundRequestID: id, ApprovalStatus: entity.StatusPending}, nil
}

func (m *mockFundAPI) CreateFundRequestLine(ctx context.Context, line entity.FundRequestLine) (*entity.FundRequestLine, error) {
	m.mu.Lock()
	m.createdLines = append(m.createdLines, line)
	id := int64(len(m.createdLines))
	m.mu.Unlock()
	if m.createLineFunc != nil {
		return m.createLineFunc(ctx, line)
	}
	created := line
	created.InternalFundsRequestCashID = id
	return &created, nil
}

func (m *mockFundAPI) UpdateFundRequestLine(ctx context.Context, line entity.FundRequestLine) (*entity.FundRequestLine, error) {
	m.mu.Lock()
	m.updatedLines = append(m.updatedLines, line)
	m.mu.Unlock()
	if m.updateLineFunc != nil {
		return m.updateLineFunc(ctx, line)
	}
	updated := line
	updated.Version++
	return &updated, nil
}

func (m *mockFundAPI) UpdateFundRequest(ctx context.Context, master entity.FundRequestMaster) (*entity.FundRequestMaster, error) {
	m.mu.Lock()
	m.updatedMasters = append(m.updatedMasters, master)
	m.mu.Unlock()
	if m.updateFunc != nil {
		return m.updateFunc(ctx, master)
	}
	updated := master
	return &updated, nil
}

func (m *mockFundAPI) DeleteFundRequest(ctx context.Context, id int64) error {
	m.mu.Lock()
	m.deletedIDs = append(m.deletedIDs, id)
	m.mu.Unlock()
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockRefDataAPI struct {
	jobs    []entity.Job
	heads   []entity.ChargeHead
	parties []entity.Party
	users   []entity.User

	jobCalls, headCalls, partyCalls, userCalls int
}

func (m *mockRefDataAPI) ListJobs(ctx context.Context, q backend.ListQuery) ([]entity.Job, error) {
	m.jobCalls++
	return m.jobs, nil
}

func (m *mockRefDataAPI) ListChargeHeads(ctx context.Context, q backend.ListQuery) ([]entity.ChargeHead, error) {
	m.headCalls++
	return m.heads, nil
}

func (m *mockRefDataAPI) ListParties(ctx context.Context, q backend.ListQuery) ([]entity.Party, error) {
	m.partyCalls++
	return m.parties, nil
}

func (m *mockRefDataAPI) ListUsers(ctx context.Context, q backend.ListQuery) ([]entity.User, error) {
	m.userCalls++
	return m.users, nil
}

type mockHistory struct {
	mu      sync.Mutex
	records []entity.ActionHistory
	err     error
}

func (m *mockHistory) Record(ctx context.Context, h *entity.ActionHistory) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.records = append(m.records, *h)
	m.mu.Unlock()
	return nil
}

func (m *mockHistory) ListByMaster(ctx context.Context, masterID int64) ([]*entity.ActionHistory, error) {
	var out []*entity.ActionHistory
	for i := range m.records {
		if m.records[i].MasterID == masterID {
			out = append(out, &m.records[i])
		}
	}
	return out, nil
}

func (m *mockHistory) ListRecent(ctx context.Context, limit int) ([]*entity.ActionHistory, error) {
	var out []*entity.ActionHistory
	for i := range m.records {
		out = append(out, &m.records[i])
	}
	return out, nil
}

type submissionNote struct {
	Approver  entity.User
	JobNumber string
	LineCount int
	Total     float64
}

type decisionNote struct {
	Creator  entity.User
	MasterID int64
	Status   entity.ApprovalStatus
	Total    float64
}

type mockNotifier struct {
	mu          sync.Mutex
	submissions []submissionNote
	decisions   []decisionNote
}

func (m *mockNotifier) SubmissionCreated(ctx context.Context, approver entity.User, jobNumber string, lineCount int, totalRequested float64) {
	m.mu.Lock()
	m.submissions = append(m.submissions, submissionNote{approver, jobNumber, lineCount, totalRequested})
	m.mu.Unlock()
}

func (m *mockNotifier) DecisionMade(ctx context.Context, creator entity.User, masterID int64, status entity.ApprovalStatus, totalApproved float64) {
	m.mu.Lock()
	m.decisions = append(m.decisions, decisionNote{creator, masterID, status, totalApproved})
	m.mu.Unlock()
}

// fixtures shared across the service tests

func testRefData() RefDataService {
	api := &mockRefDataAPI{
		jobs: []entity.Job{
			{JobID: 100, JobNumber: "J-100", Description: "MV Northern Star discharge"},
			{JobID: 101, JobNumber: "J-101", Description: "Container storage"},
		},
		heads: []entity.ChargeHead{
			{ChargesID: 11, ChargeCode: "FRT", ChargeName: "Freight", HeadOfAccount: "FREIGHT"},
			{ChargesID: 12, ChargeCode: "HDL", ChargeName: "Handling", HeadOfAccount: "HANDLING"},
		},
		parties: []entity.Party{
			{PartyID: 21, PartyCode: "ACME", PartyName: "Acme Transport", PreferredPayeeName: "Acme Transport Ltd"},
			{PartyID: 22, PartyCode: "BLT", PartyName: "Baltic Lines"},
			{PartyID: 23, PartyCode: "NONAME"},
		},
		users: []entity.User{
			{UserID: 42, UserName: "j.reyes", DisplayName: "Joan Reyes", LarkOpenID: "ou_42"},
			{UserID: 7, UserName: "m.okafor", DisplayName: "Maya Okafor"},
		},
	}
	return NewRefDataService(api, zap.NewNop())
}

package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/harborline/freightdesk/internal/application/port"
	"github.com/harborline/freightdesk/internal/backend"
	"github.com/harborline/freightdesk/internal/domain/entity"
)

// RefDataService is the read-only gateway for the lookups the line builder
// consumes. Each collection is fetched from the backend once and filtered
// locally by substring match as the user types; Refresh drops the caches.
type RefDataService interface {
	Jobs(ctx context.Context) ([]entity.Job, error)
	ChargeHeads(ctx context.Context) ([]entity.ChargeHead, error)
	Beneficiaries(ctx context.Context) ([]entity.Party, error)
	Requestors(ctx context.Context) ([]entity.User, error)

	FilterJobs(ctx context.Context, query string) ([]entity.Job, error)
	FilterChargeHeads(ctx context.Context, query string) ([]entity.ChargeHead, error)
	FilterBeneficiaries(ctx context.Context, query string) ([]entity.Party, error)
	FilterRequestors(ctx context.Context, query string) ([]entity.User, error)

	JobByID(ctx context.Context, id int64) (*entity.Job, error)
	ChargeHeadByID(ctx context.Context, id int64) (*entity.ChargeHead, error)
	PartyByID(ctx context.Context, id int64) (*entity.Party, error)
	UserByID(ctx context.Context, id int64) (*entity.User, error)

	Refresh()
}

type refDataServiceImpl struct {
	api    port.ReferenceDataAPI
	logger *zap.Logger

	mu      sync.Mutex
	jobs    []entity.Job
	heads   []entity.ChargeHead
	parties []entity.Party
	users   []entity.User
	loaded  struct{ jobs, heads, parties, users bool }
}

// NewRefDataService creates the reference data gateway.
func NewRefDataService(api port.ReferenceDataAPI, logger *zap.Logger) RefDataService {
	return &refDataServiceImpl{api: api, logger: logger}
}

func (s *refDataServiceImpl) Jobs(ctx context.Context) ([]entity.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded.jobs {
		jobs, err := s.api.ListJobs(ctx, backend.ListQuery{})
		if err != nil {
			return nil, fmt.Errorf("load jobs: %w", err)
		}
		s.jobs = jobs
		s.loaded.jobs = true
		s.logger.Info("Reference data loaded", zap.String("kind", "jobs"), zap.Int("count", len(jobs)))
	}
	return append([]entity.Job{}, s.jobs...), nil
}

func (s *refDataServiceImpl) ChargeHeads(ctx context.Context) ([]entity.ChargeHead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded.heads {
		heads, err := s.api.ListChargeHeads(ctx, backend.ListQuery{})
		if err != nil {
			return nil, fmt.Errorf("load charge heads: %w", err)
		}
		s.heads = heads
		s.loaded.heads = true
		s.logger.Info("Reference data loaded", zap.String("kind", "chargeHeads"), zap.Int("count", len(heads)))
	}
	return append([]entity.ChargeHead{}, s.heads...), nil
}

func (s *refDataServiceImpl) Beneficiaries(ctx context.Context) ([]entity.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded.parties {
		parties, err := s.api.ListParties(ctx, backend.ListQuery{})
		if err != nil {
			return nil, fmt.Errorf("load beneficiaries: %w", err)
		}
		s.parties = parties
		s.loaded.parties = true
		s.logger.Info("Reference data loaded", zap.String("kind", "beneficiaries"), zap.Int("count", len(parties)))
	}
	return append([]entity.Party{}, s.parties...), nil
}

func (s *refDataServiceImpl) Requestors(ctx context.Context) ([]entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded.users {
		users, err := s.api.ListUsers(ctx, backend.ListQuery{})
		if err != nil {
			return nil, fmt.Errorf("load requestors: %w", err)
		}
		s.users = users
		s.loaded.users = true
		s.logger.Info("Reference data loaded", zap.String("kind", "requestors"), zap.Int("count", len(users)))
	}
	return append([]entity.User{}, s.users...), nil
}

// matches does the case-insensitive substring check used by every filter.
func matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (s *refDataServiceImpl) FilterJobs(ctx context.Context, query string) ([]entity.Job, error) {
	jobs, err := s.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	out := jobs[:0]
	for _, j := range jobs {
		if matches(query, j.JobNumber, j.Description, j.VesselName) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *refDataServiceImpl) FilterChargeHeads(ctx context.Context, query string) ([]entity.ChargeHead, error) {
	heads, err := s.ChargeHeads(ctx)
	if err != nil {
		return nil, err
	}
	out := heads[:0]
	for _, h := range heads {
		if matches(query, h.ChargeCode, h.ChargeName, h.HeadOfAccount) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *refDataServiceImpl) FilterBeneficiaries(ctx context.Context, query string) ([]entity.Party, error) {
	parties, err := s.Beneficiaries(ctx)
	if err != nil {
		return nil, err
	}
	out := parties[:0]
	for _, p := range parties {
		if matches(query, p.PartyCode, p.PartyName, p.PreferredPayeeName) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *refDataServiceImpl) FilterRequestors(ctx context.Context, query string) ([]entity.User, error) {
	users, err := s.Requestors(ctx)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if matches(query, u.UserName, u.DisplayName) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *refDataServiceImpl) JobByID(ctx context.Context, id int64) (*entity.Job, error) {
	jobs, err := s.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if j.JobID == id {
			return &j, nil
		}
	}
	return nil, fmt.Errorf("job %d not found", id)
}

func (s *refDataServiceImpl) ChargeHeadByID(ctx context.Context, id int64) (*entity.ChargeHead, error) {
	heads, err := s.ChargeHeads(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range heads {
		if h.ChargesID == id {
			return &h, nil
		}
	}
	return nil, fmt.Errorf("charge head %d not found", id)
}

func (s *refDataServiceImpl) PartyByID(ctx context.Context, id int64) (*entity.Party, error) {
	parties, err := s.Beneficiaries(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range parties {
		if p.PartyID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("party %d not found", id)
}

func (s *refDataServiceImpl) UserByID(ctx context.Context, id int64) (*entity.User, error) {
	users, err := s.Requestors(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.UserID == id {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %d not found", id)
}

func (s *refDataServiceImpl) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs, s.heads, s.parties, s.users = nil, nil, nil, nil
	s.loaded.jobs, s.loaded.heads, s.loaded.parties, s.loaded.users = false, false, false, false
	s.logger.Info("Reference data caches dropped")
}

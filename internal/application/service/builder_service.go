package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborline/freightdesk/internal/application/port"
	"github.com/harborline/freightdesk/internal/domain/entity"
)

var (
	// ErrSessionNotFound is returned for an unknown draft session id.
	ErrSessionNotFound = errors.New("draft session not found")

	// ErrLastLine is returned when removing a line would leave the draft
	// empty; a fund request must keep at least one line.
	ErrLastLine = errors.New("a fund request must have at least one line")

	// ErrUnknownField is returned for an unsupported UpdateLine field name.
	ErrUnknownField = errors.New("unknown draft line field")
)

// SubmitMode distinguishes first-time creation from editing a persisted
// request.
type SubmitMode string

const (
	ModeCreate SubmitMode = "create"
	ModeEdit   SubmitMode = "edit"
)

// Violation is one pre-submission validation failure. Violations are
// collected across the whole draft so the user sees every problem at once.
type Violation struct {
	Line    int    `json:"line"` // 1-based; 0 for batch-level problems
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates all violations found in one validation pass.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Line > 0 {
			parts = append(parts, fmt.Sprintf("line %d: %s", v.Line, v.Message))
		} else {
			parts = append(parts, v.Message)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// DraftSession is one in-progress fund request: an ordered set of draft
// lines plus the single designated approver for the whole batch. Sessions
// are discarded on cancel or after successful submission.
type DraftSession struct {
	ID            uuid.UUID
	Mode          SubmitMode
	MasterID      int64 // set in edit mode
	Lines         []*entity.DraftLine
	RequestorID   int64
	RequestorName string
}

// Line returns the draft line with the given local id, or nil.
func (s *DraftSession) Line(lineID uuid.UUID) *entity.DraftLine {
	for _, l := range s.Lines {
		if l.Ref.LocalID() == lineID {
			return l
		}
	}
	return nil
}

// TotalRequested sums the draft lines' requested amounts.
func (s *DraftSession) TotalRequested() float64 {
	var total float64
	for _, l := range s.Lines {
		total += l.RequestedAmount
	}
	return total
}

// Validate collects every violation in the draft: each line needs a job, an
// expense head, a beneficiary and a positive amount, and the batch needs a
// requestor. It never fails fast.
func (s *DraftSession) Validate() *ValidationError {
	var violations []Violation
	for i, l := range s.Lines {
		n := i + 1
		if l.JobID == 0 {
			violations = append(violations, Violation{Line: n, Field: "jobId", Message: "job is required"})
		}
		if l.HeadCoaID == 0 {
			violations = append(violations, Violation{Line: n, Field: "headCoaId", Message: "expense head is required"})
		}
		if l.BeneficiaryCoaID == 0 {
			violations = append(violations, Violation{Line: n, Field: "beneficiaryCoaId", Message: "beneficiary is required"})
		}
		if l.RequestedAmount <= 0 {
			violations = append(violations, Violation{Line: n, Field: "requestedAmount", Message: "requested amount must be greater than zero"})
		}
	}
	if s.RequestorID == 0 {
		violations = append(violations, Violation{Field: "requestedTo", Message: "a requestor must be selected"})
	}
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// BuilderService maintains draft sessions for the fund request line builder.
type BuilderService interface {
	Open(ctx context.Context) *DraftSession
	OpenForEdit(ctx context.Context, masterID int64) (*DraftSession, error)
	Get(sessionID uuid.UUID) (*DraftSession, error)
	Discard(sessionID uuid.UUID)

	AddLine(sessionID uuid.UUID) (uuid.UUID, error)
	RemoveLine(sessionID, lineID uuid.UUID) error
	UpdateLine(sessionID, lineID uuid.UUID, field string, value interface{}) error

	SelectJob(ctx context.Context, sessionID, lineID uuid.UUID, jobID int64) error
	SelectExpenseHead(ctx context.Context, sessionID, lineID uuid.UUID, chargeID int64) error
	SelectBeneficiary(ctx context.Context, sessionID, lineID uuid.UUID, partyID int64) error
	SelectRequestor(ctx context.Context, sessionID uuid.UUID, userID int64) error
}

type builderServiceImpl struct {
	refData  RefDataService
	fundAPI  port.FundRequestAPI
	logger   *zap.Logger
	mu       sync.RWMutex
	sessions map[uuid.UUID]*DraftSession
}

// NewBuilderService creates the line builder.
func NewBuilderService(refData RefDataService, fundAPI port.FundRequestAPI, logger *zap.Logger) BuilderService {
	return &builderServiceImpl{
		refData:  refData,
		fundAPI:  fundAPI,
		logger:   logger,
		sessions: make(map[uuid.UUID]*DraftSession),
	}
}

// Open creates a session seeded with one empty line.
func (s *builderServiceImpl) Open(ctx context.Context) *DraftSession {
	session := &DraftSession{
		ID:    uuid.New(),
		Mode:  ModeCreate,
		Lines: []*entity.DraftLine{entity.NewDraftLine()},
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	s.logger.Info("Draft session opened", zap.String("session_id", session.ID.String()))
	return session
}

// OpenForEdit seeds a session from a persisted master's lines.
func (s *builderServiceImpl) OpenForEdit(ctx context.Context, masterID int64) (*DraftSession, error) {
	master, err := s.fundAPI.GetFundRequest(ctx, masterID)
	if err != nil {
		return nil, fmt.Errorf("open for edit: %w", err)
	}
	session := &DraftSession{
		ID:            uuid.New(),
		Mode:          ModeEdit,
		MasterID:      master.CashFundRequestID,
		RequestorID:   master.RequestedTo,
		RequestorName: master.RequestedToName,
	}
	for _, line := range master.Lines {
		session.Lines = append(session.Lines, entity.DraftFromLine(line))
	}
	if len(session.Lines) == 0 {
		session.Lines = []*entity.DraftLine{entity.NewDraftLine()}
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	s.logger.Info("Draft session opened for edit",
		zap.String("session_id", session.ID.String()),
		zap.Int64("master_id", masterID))
	return session, nil
}

func (s *builderServiceImpl) Get(sessionID uuid.UUID) (*DraftSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *builderServiceImpl) Discard(sessionID uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *builderServiceImpl) AddLine(sessionID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return uuid.Nil, ErrSessionNotFound
	}
	line := entity.NewDraftLine()
	session.Lines = append(session.Lines, line)
	return line.Ref.LocalID(), nil
}

func (s *builderServiceImpl) RemoveLine(sessionID, lineID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if len(session.Lines) <= 1 {
		return ErrLastLine
	}
	for i, l := range session.Lines {
		if l.Ref.LocalID() == lineID {
			session.Lines = append(session.Lines[:i], session.Lines[i+1:]...)
			return nil
		}
	}
	// Unknown line ids are a no-op.
	return nil
}

func (s *builderServiceImpl) UpdateLine(sessionID, lineID uuid.UUID, field string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	line := session.Line(lineID)
	if line == nil {
		return nil
	}
	switch field {
	case "requestedAmount":
		amount, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("requestedAmount: expected a number, got %T", value)
		}
		line.RequestedAmount = amount
	case "partiesAccount":
		text, ok := value.(string)
		if !ok {
			return fmt.Errorf("partiesAccount: expected a string, got %T", value)
		}
		line.PartiesAccount = text
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (s *builderServiceImpl) SelectJob(ctx context.Context, sessionID, lineID uuid.UUID, jobID int64) error {
	job, err := s.refData.JobByID(ctx, jobID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	line := session.Line(lineID)
	if line == nil {
		return nil
	}
	line.JobID = job.JobID
	line.JobNumber = job.JobNumber
	return nil
}

func (s *builderServiceImpl) SelectExpenseHead(ctx context.Context, sessionID, lineID uuid.UUID, chargeID int64) error {
	head, err := s.refData.ChargeHeadByID(ctx, chargeID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	line := session.Line(lineID)
	if line == nil {
		return nil
	}
	line.HeadCoaID = head.ChargesID
	line.HeadOfAccount = head.DisplayName()
	return nil
}

// SelectBeneficiary sets the beneficiary FK and label, and derives the
// parties-account display from the party's preferred payee name (falling
// back to party name, then code).
func (s *builderServiceImpl) SelectBeneficiary(ctx context.Context, sessionID, lineID uuid.UUID, partyID int64) error {
	party, err := s.refData.PartyByID(ctx, partyID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	line := session.Line(lineID)
	if line == nil {
		return nil
	}
	line.BeneficiaryCoaID = party.PartyID
	line.Beneficiary = party.PartyName
	line.PartiesAccount = party.PayeeAccount()
	return nil
}

func (s *builderServiceImpl) SelectRequestor(ctx context.Context, sessionID uuid.UUID, userID int64) error {
	user, err := s.refData.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	session.RequestorID = user.UserID
	session.RequestorName = user.DisplayName
	return nil
}

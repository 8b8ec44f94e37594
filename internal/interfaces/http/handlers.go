package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborline/freightdesk/internal/application/service"
	"github.com/harborline/freightdesk/internal/backend"
	"github.com/harborline/freightdesk/internal/domain/reconcile"
	"github.com/harborline/freightdesk/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers.
type Handlers struct {
	refData    service.RefDataService
	builder    service.BuilderService
	submission service.SubmissionService
	approval   service.ApprovalService
	summary    service.SummaryService
	logger     *zap.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(
	refData service.RefDataService,
	builder service.BuilderService,
	submission service.SubmissionService,
	approval service.ApprovalService,
	summary service.SummaryService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		refData:    refData,
		builder:    builder,
		submission: submission,
		approval:   approval,
		summary:    summary,
		logger:     logger,
	}
}

// Response is the standard JSON envelope.
type Response struct {
	Success    bool                `json:"success"`
	Data       interface{}         `json:"data,omitempty"`
	Error      string              `json:"error,omitempty"`
	ErrorKind  string              `json:"errorKind,omitempty"`
	Violations []service.Violation `json:"violations,omitempty"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// fail maps service/backend errors onto HTTP statuses and the envelope. All
// errors become user-visible messages; none pass silently.
func fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, Response{
			Success:    false,
			Error:      verr.Error(),
			ErrorKind:  "VALIDATION",
			Violations: verr.Violations,
		})
		return
	}

	status := http.StatusInternalServerError
	kind := ""
	switch {
	case errors.Is(err, service.ErrMissingIdentity):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrLastLine),
		errors.Is(err, service.ErrOverApprovalUnconfirmed),
		errors.Is(err, reconcile.ErrNegativeAmount),
		errors.Is(err, reconcile.ErrUnknownLine),
		errors.Is(err, service.ErrUnknownField):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrGuardFailed):
		status = http.StatusConflict
	default:
		switch backend.KindOf(err) {
		case backend.KindNotFound:
			status = http.StatusNotFound
			kind = string(backend.KindNotFound)
		case backend.KindConflict:
			status = http.StatusConflict
			kind = string(backend.KindConflict)
		case backend.KindValidation:
			status = http.StatusBadRequest
			kind = string(backend.KindValidation)
		case backend.KindTransport:
			status = http.StatusBadGateway
			kind = string(backend.KindTransport)
		case backend.KindBusiness:
			status = http.StatusBadGateway
			kind = string(backend.KindBusiness)
		}
	}

	c.JSON(status, Response{Success: false, Error: err.Error(), ErrorKind: kind})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// --- reference data ---

// ListJobs handles GET /api/refdata/jobs?q=
func (h *Handlers) ListJobs(c *gin.Context) {
	jobs, err := h.refData.FilterJobs(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, jobs)
}

// ListChargeHeads handles GET /api/refdata/charge-heads?q=
func (h *Handlers) ListChargeHeads(c *gin.Context) {
	heads, err := h.refData.FilterChargeHeads(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, heads)
}

// ListBeneficiaries handles GET /api/refdata/beneficiaries?q=
func (h *Handlers) ListBeneficiaries(c *gin.Context) {
	parties, err := h.refData.FilterBeneficiaries(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, parties)
}

// ListRequestors handles GET /api/refdata/requestors?q=
func (h *Handlers) ListRequestors(c *gin.Context) {
	users, err := h.refData.FilterRequestors(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// RefreshRefData handles POST /api/refdata/refresh.
func (h *Handlers) RefreshRefData(c *gin.Context) {
	h.refData.Refresh()
	ok(c, http.StatusOK, nil)
}

// --- draft sessions ---

// draftLineView flattens a draft line for the UI.
type draftLineView struct {
	LineID           string  `json:"lineId"`
	ServerID         int64   `json:"serverId,omitempty"`
	JobID            int64   `json:"jobId,omitempty"`
	JobNumber        string  `json:"jobNumber,omitempty"`
	HeadCoaID        int64   `json:"headCoaId,omitempty"`
	HeadOfAccount    string  `json:"headOfAccount,omitempty"`
	BeneficiaryCoaID int64   `json:"beneficiaryCoaId,omitempty"`
	Beneficiary      string  `json:"beneficiary,omitempty"`
	PartiesAccount   string  `json:"partiesAccount,omitempty"`
	RequestedAmount  float64 `json:"requestedAmount"`
	Status           string  `json:"approvalStatus"`
}

type draftView struct {
	SessionID      string          `json:"sessionId"`
	Mode           string          `json:"mode"`
	MasterID       int64           `json:"masterId,omitempty"`
	RequestorID    int64           `json:"requestorId,omitempty"`
	RequestorName  string          `json:"requestorName,omitempty"`
	Lines          []draftLineView `json:"lines"`
	TotalRequested float64         `json:"totalRequested"`
}

func toDraftView(s *service.DraftSession) draftView {
	view := draftView{
		SessionID:      s.ID.String(),
		Mode:           string(s.Mode),
		MasterID:       s.MasterID,
		RequestorID:    s.RequestorID,
		RequestorName:  s.RequestorName,
		TotalRequested: s.TotalRequested(),
		Lines:          make([]draftLineView, 0, len(s.Lines)),
	}
	for _, l := range s.Lines {
		lv := draftLineView{
			LineID:           l.Ref.LocalID().String(),
			JobID:            l.JobID,
			JobNumber:        l.JobNumber,
			HeadCoaID:        l.HeadCoaID,
			HeadOfAccount:    l.HeadOfAccount,
			BeneficiaryCoaID: l.BeneficiaryCoaID,
			Beneficiary:      l.Beneficiary,
			PartiesAccount:   l.PartiesAccount,
			RequestedAmount:  l.RequestedAmount,
			Status:           string(l.Status),
		}
		if id, persisted := l.Ref.Persisted(); persisted {
			lv.ServerID = id
		}
		view.Lines = append(view.Lines, lv)
	}
	return view
}

// OpenDraft handles POST /api/drafts.
func (h *Handlers) OpenDraft(c *gin.Context) {
	session := h.builder.Open(c.Request.Context())
	ok(c, http.StatusCreated, toDraftView(session))
}

// OpenDraftForEdit handles POST /api/fund-requests/:id/edit.
func (h *Handlers) OpenDraftForEdit(c *gin.Context) {
	masterID, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	session, err := h.builder.OpenForEdit(c.Request.Context(), masterID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, toDraftView(session))
}

// GetDraft handles GET /api/drafts/:id.
func (h *Handlers) GetDraft(c *gin.Context) {
	session, err := h.sessionFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, toDraftView(session))
}

// DiscardDraft handles DELETE /api/drafts/:id.
func (h *Handlers) DiscardDraft(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, service.ErrSessionNotFound)
		return
	}
	h.builder.Discard(sessionID)
	c.Status(http.StatusNoContent)
}

// AddDraftLine handles POST /api/drafts/:id/lines.
func (h *Handlers) AddDraftLine(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, service.ErrSessionNotFound)
		return
	}
	lineID, err := h.builder.AddLine(sessionID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"lineId": lineID.String()})
}

// RemoveDraftLine handles DELETE /api/drafts/:id/lines/:lineID.
func (h *Handlers) RemoveDraftLine(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, service.ErrSessionNotFound)
		return
	}
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		// Unknown line ids are a builder no-op.
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.builder.RemoveLine(sessionID, lineID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// updateLineRequest carries field updates and reference selections; any
// provided member is applied.
type updateLineRequest struct {
	JobID           *int64      `json:"jobId"`
	ChargeID        *int64      `json:"chargeId"`
	PartyID         *int64      `json:"partyId"`
	RequestedAmount *float64    `json:"requestedAmount"`
	Field           string      `json:"field"`
	Value           interface{} `json:"value"`
}

// UpdateDraftLine handles PATCH /api/drafts/:id/lines/:lineID.
func (h *Handlers) UpdateDraftLine(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, service.ErrSessionNotFound)
		return
	}
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		c.Status(http.StatusNoContent)
		return
	}

	var req updateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if req.JobID != nil {
		if err := h.builder.SelectJob(ctx, sessionID, lineID, *req.JobID); err != nil {
			fail(c, err)
			return
		}
	}
	if req.ChargeID != nil {
		if err := h.builder.SelectExpenseHead(ctx, sessionID, lineID, *req.ChargeID); err != nil {
			fail(c, err)
			return
		}
	}
	if req.PartyID != nil {
		if err := h.builder.SelectBeneficiary(ctx, sessionID, lineID, *req.PartyID); err != nil {
			fail(c, err)
			return
		}
	}
	if req.RequestedAmount != nil {
		if err := h.builder.UpdateLine(sessionID, lineID, "requestedAmount", *req.RequestedAmount); err != nil {
			fail(c, err)
			return
		}
	}
	if req.Field != "" {
		if err := h.builder.UpdateLine(sessionID, lineID, req.Field, req.Value); err != nil {
			fail(c, err)
			return
		}
	}

	session, err := h.builder.Get(sessionID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, toDraftView(session))
}

// SelectRequestor handles PUT /api/drafts/:id/requestor.
func (h *Handlers) SelectRequestor(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, service.ErrSessionNotFound)
		return
	}
	var req struct {
		UserID int64 `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "userId is required"})
		return
	}
	if err := h.builder.SelectRequestor(c.Request.Context(), sessionID, req.UserID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitDraft handles POST /api/drafts/:id/submit.
func (h *Handlers) SubmitDraft(c *gin.Context) {
	session, err := h.sessionFrom(c)
	if err != nil {
		fail(c, err)
		return
	}
	actor := identityFrom(c)
	result, err := h.submission.Submit(c.Request.Context(), session, actor)
	if err != nil {
		fail(c, err)
		return
	}
	h.builder.Discard(session.ID)
	ok(c, http.StatusOK, result)
}

// --- fund requests ---

// ListFundRequests handles GET /api/fund-requests.
func (h *Handlers) ListFundRequests(c *gin.Context) {
	q := backend.ListQuery{SortOn: c.Query("sortOn")}
	if status := c.Query("status"); status != "" {
		q.Where = map[string]string{"approvalStatus": status}
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.Query("pageSize")); err == nil && size > 0 {
		q.PageSize = size
	}

	masters, err := h.approval.List(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, masters)
}

// GetFundRequest handles GET /api/fund-requests/:id.
func (h *Handlers) GetFundRequest(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	master, err := h.approval.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, master)
}

// DeleteFundRequest handles DELETE /api/fund-requests/:id.
func (h *Handlers) DeleteFundRequest(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.approval.Delete(c.Request.Context(), id, identityFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetHistory handles GET /api/fund-requests/:id/history.
func (h *Handlers) GetHistory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	history, err := h.approval.History(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, history)
}

// --- review / decisions ---

type reviewLineView struct {
	LineID          int64   `json:"lineId"`
	HeadOfAccount   string  `json:"headOfAccount"`
	Beneficiary     string  `json:"beneficiary"`
	PartiesAccount  string  `json:"partiesAccount"`
	RequestedAmount float64 `json:"requestedAmount"`
	ApprovedAmount  float64 `json:"approvedAmount"`
	OverApproved    bool    `json:"overApproved"`
}

type reviewView struct {
	MasterID        int64            `json:"masterId"`
	Status          string           `json:"status"`
	Lines           []reviewLineView `json:"lines"`
	TotalRequested  float64          `json:"totalRequested"`
	TotalApproved   float64          `json:"totalApproved"`
	Difference      float64          `json:"difference"`
	Severity        string           `json:"severity"`
	OverApprovedIDs []int64          `json:"overApprovedLineIds,omitempty"`
}

func toReviewView(r *reconcile.Review) reviewView {
	totals := r.Totals()
	view := reviewView{
		MasterID:        r.MasterID(),
		Status:          r.Status().String(),
		TotalRequested:  totals.Requested,
		TotalApproved:   totals.Approved,
		Difference:      totals.Difference,
		Severity:        totals.Severity().String(),
		OverApprovedIDs: r.OverApprovedLines(),
	}
	for _, l := range r.Lines() {
		view.Lines = append(view.Lines, reviewLineView{
			LineID:          l.LineID,
			HeadOfAccount:   l.HeadOfAccount,
			Beneficiary:     l.Beneficiary,
			PartiesAccount:  l.PartiesAccount,
			RequestedAmount: l.RequestedAmount,
			ApprovedAmount:  l.ApprovedAmount,
			OverApproved:    l.OverApproved(),
		})
	}
	return view
}

// GetReview handles GET /api/fund-requests/:id/review: the approval view,
// defaulted to approved := requested while the master is pending and to the
// stored approved amounts once decided.
func (h *Handlers) GetReview(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	review, err := h.approval.OpenReview(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, toReviewView(review))
}

type decisionLine struct {
	LineID         int64   `json:"lineId"`
	ApprovedAmount float64 `json:"approvedAmount"`
}

type approveRequest struct {
	Lines               []decisionLine `json:"lines"`
	ConfirmOverApproval bool           `json:"confirmOverApproval"`
}

// Approve handles POST /api/fund-requests/:id/approve.
func (h *Handlers) Approve(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	review, err := h.approval.OpenReview(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	for _, l := range req.Lines {
		if err := review.SetApprovedAmount(l.LineID, l.ApprovedAmount); err != nil {
			fail(c, err)
			return
		}
	}

	updated, err := h.approval.Approve(ctx, review, identityFrom(c), req.ConfirmOverApproval)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

// Reject handles POST /api/fund-requests/:id/reject.
func (h *Handlers) Reject(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	review, err := h.approval.OpenReview(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	updated, err := h.approval.Reject(ctx, review, identityFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}

// Summary handles GET /api/fund-requests/summary.
func (h *Handlers) Summary(c *gin.Context) {
	summary, err := h.summary.Overview(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, summary)
}

// --- helpers ---

func (h *Handlers) sessionFrom(c *gin.Context) (*service.DraftSession, error) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, service.ErrSessionNotFound
	}
	return h.builder.Get(sessionID)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &backend.APIError{
			Kind:       backend.KindValidation,
			StatusCode: http.StatusBadRequest,
			Message:    "invalid " + name,
		}
	}
	return id, nil
}

// Package reconcile holds the approval review: the reviewer-facing view of
// a pending fund request's lines with adjustable approved amounts, the
// amount aggregation rules, and the over/under-approval flags.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/harborline/freightdesk/internal/domain/entity"
)

var (
	// ErrNegativeAmount is returned when a reviewer tries to set an
	// approved amount below zero.
	ErrNegativeAmount = errors.New("approved amount cannot be negative")

	// ErrUnknownLine is returned when the line id does not belong to the
	// review.
	ErrUnknownLine = errors.New("unknown line")

	// ErrNoLines is returned when a master arrives without line items.
	ErrNoLines = errors.New("fund request has no line items")
)

// Severity grades the requested/approved difference for presentation.
// Over-approval is flagged above under-approval.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityUnderApproved
	SeverityOverApproved
)

func (s Severity) String() string {
	switch s {
	case SeverityUnderApproved:
		return "UNDER_APPROVED"
	case SeverityOverApproved:
		return "OVER_APPROVED"
	default:
		return "NONE"
	}
}

// Line is one reviewable line item.
type Line struct {
	LineID           int64
	JobID            int64
	HeadCoaID        int64
	HeadOfAccount    string
	BeneficiaryCoaID int64
	Beneficiary      string
	PartiesAccount   string
	RequestedAmount  float64
	ApprovedAmount   float64
	Version          int64
}

// OverApproved reports whether the line's approved amount exceeds its
// requested amount.
func (l Line) OverApproved() bool {
	return l.ApprovedAmount > l.RequestedAmount
}

// Totals aggregates the review's amounts. Difference is approved minus
// requested; positive means over-approval.
type Totals struct {
	Requested  float64
	Approved   float64
	Difference float64
}

// Severity grades the difference.
func (t Totals) Severity() Severity {
	switch {
	case t.Difference > 0:
		return SeverityOverApproved
	case t.Difference < 0:
		return SeverityUnderApproved
	default:
		return SeverityNone
	}
}

// Review is the in-memory reconciliation state for one pending master. It
// mutates nothing remotely; the approval service sends one consolidated
// update when the reviewer confirms.
type Review struct {
	master entity.FundRequestMaster
	lines  []Line
	index  map[int64]int
}

// NewReview derives a review from a fetched master. On a pending master
// every line's approved amount defaults to its requested amount; once a
// decision has been made the stored approved amounts are shown instead.
func NewReview(master entity.FundRequestMaster) (*Review, error) {
	if len(master.Lines) == 0 {
		return nil, fmt.Errorf("%w: master %d", ErrNoLines, master.CashFundRequestID)
	}
	r := &Review{
		master: master,
		lines:  make([]Line, 0, len(master.Lines)),
		index:  make(map[int64]int, len(master.Lines)),
	}
	for i, l := range master.Lines {
		approved := l.RequestedAmount
		if master.ApprovalStatus != entity.StatusPending {
			approved = l.ApprovedAmount
		}
		r.lines = append(r.lines, Line{
			LineID:           l.InternalFundsRequestCashID,
			JobID:            l.JobID,
			HeadCoaID:        l.HeadCoaID,
			HeadOfAccount:    l.HeadOfAccount,
			BeneficiaryCoaID: l.BeneficiaryCoaID,
			Beneficiary:      l.Beneficiary,
			PartiesAccount:   l.PartiesAccount,
			RequestedAmount:  l.RequestedAmount,
			ApprovedAmount:   approved,
			Version:          l.Version,
		})
		r.index[l.InternalFundsRequestCashID] = i
	}
	return r, nil
}

// MasterID returns the reviewed master's server id.
func (r *Review) MasterID() int64 {
	return r.master.CashFundRequestID
}

// Status returns the master's current approval status.
func (r *Review) Status() entity.ApprovalStatus {
	return r.master.ApprovalStatus
}

// Master returns a copy of the underlying master record.
func (r *Review) Master() entity.FundRequestMaster {
	return r.master
}

// Lines returns a copy of the review lines in master order.
func (r *Review) Lines() []Line {
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

// SetApprovedAmount sets one line's approved amount. Negative amounts are
// rejected; exceeding the requested amount is allowed but flagged through
// OverApprovedLines and the totals severity.
func (r *Review) SetApprovedAmount(lineID int64, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: line %d", ErrNegativeAmount, lineID)
	}
	i, ok := r.index[lineID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownLine, lineID)
	}
	r.lines[i].ApprovedAmount = amount
	return nil
}

// AutoFill sets every line's approved amount to its requested amount. It is
// idempotent and has no network effect.
func (r *Review) AutoFill() {
	for i := range r.lines {
		r.lines[i].ApprovedAmount = r.lines[i].RequestedAmount
	}
}

// ZeroFill forces every line's approved amount to zero, as a rejection does.
func (r *Review) ZeroFill() {
	for i := range r.lines {
		r.lines[i].ApprovedAmount = 0
	}
}

// Totals computes the aggregation over the current line amounts.
func (r *Review) Totals() Totals {
	var t Totals
	for _, l := range r.lines {
		t.Requested += l.RequestedAmount
		t.Approved += l.ApprovedAmount
	}
	t.Difference = t.Approved - t.Requested
	return t
}

// OverApprovedLines returns the ids of lines whose approved amount exceeds
// their requested amount.
func (r *Review) OverApprovedLines() []int64 {
	var ids []int64
	for _, l := range r.lines {
		if l.OverApproved() {
			ids = append(ids, l.LineID)
		}
	}
	return ids
}

// ApplyAmounts writes the review's approved amounts back onto a copy of the
// master's lines, preserving line order and all other fields.
func (r *Review) ApplyAmounts() []entity.FundRequestLine {
	lines := make([]entity.FundRequestLine, len(r.master.Lines))
	copy(lines, r.master.Lines)
	for i := range lines {
		if j, ok := r.index[lines[i].InternalFundsRequestCashID]; ok {
			lines[i].ApprovedAmount = r.lines[j].ApprovedAmount
		}
	}
	return lines
}

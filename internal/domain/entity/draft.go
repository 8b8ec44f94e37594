package entity

import (
	"time"

	"github.com/google/uuid"
)

// LineRef identifies a fund request line on either side of its first
// persist: a draft line carries only a client-generated local id, a
// persisted line carries the server-assigned id.
type LineRef struct {
	localID  uuid.UUID
	serverID int64
}

// NewDraftRef creates a reference for a not-yet-persisted line.
func NewDraftRef() LineRef {
	return LineRef{localID: uuid.New()}
}

// NewPersistedRef creates a reference for a server-assigned line. It still
// mints a local id so the line stays individually addressable in a draft.
func NewPersistedRef(serverID int64) LineRef {
	return LineRef{localID: uuid.New(), serverID: serverID}
}

// LocalID returns the client-generated identifier.
func (r LineRef) LocalID() uuid.UUID {
	return r.localID
}

// Persisted returns the server id and true once the line has been persisted.
func (r LineRef) Persisted() (int64, bool) {
	return r.serverID, r.serverID != 0
}

// Resolve marks the reference as persisted under the given server id.
func (r LineRef) Resolve(serverID int64) LineRef {
	return LineRef{localID: r.localID, serverID: serverID}
}

// DraftLine is a builder-local line item. It has the same shape as a
// FundRequestLine but is keyed by a client-only id until first persist and
// is discarded on cancel or after successful submission.
type DraftLine struct {
	Ref              LineRef
	JobID            int64
	JobNumber        string
	HeadCoaID        int64
	HeadOfAccount    string
	BeneficiaryCoaID int64
	Beneficiary      string
	PartiesAccount   string
	RequestedAmount  float64
	Version          int64
	Status           ApprovalStatus
}

// NewDraftLine returns an empty draft line with a fresh local id.
func NewDraftLine() *DraftLine {
	return &DraftLine{
		Ref:    NewDraftRef(),
		Status: StatusPending,
	}
}

// ToLine converts the draft into the wire-level line payload for the given
// approver and creator. ChargesID mirrors the expense head id.
func (d *DraftLine) ToLine(masterID, requestedTo, createdBy int64, now time.Time) FundRequestLine {
	line := FundRequestLine{
		CashFundRequestMasterID: masterID,
		JobID:                   d.JobID,
		JobNumber:               d.JobNumber,
		HeadCoaID:               d.HeadCoaID,
		HeadOfAccount:           d.HeadOfAccount,
		ChargesID:               d.HeadCoaID,
		BeneficiaryCoaID:        d.BeneficiaryCoaID,
		Beneficiary:             d.Beneficiary,
		PartiesAccount:          d.PartiesAccount,
		RequestedAmount:         d.RequestedAmount,
		ApprovalStatus:          StatusPending,
		RequestedTo:             requestedTo,
		CreatedBy:               createdBy,
		CreatedOn:               now,
		Version:                 d.Version,
	}
	if id, ok := d.Ref.Persisted(); ok {
		line.InternalFundsRequestCashID = id
	}
	return line
}

// DraftFromLine seeds a draft from a persisted line for edit mode.
func DraftFromLine(l FundRequestLine) *DraftLine {
	return &DraftLine{
		Ref:              NewPersistedRef(l.InternalFundsRequestCashID),
		JobID:            l.JobID,
		JobNumber:        l.JobNumber,
		HeadCoaID:        l.HeadCoaID,
		HeadOfAccount:    l.HeadOfAccount,
		BeneficiaryCoaID: l.BeneficiaryCoaID,
		Beneficiary:      l.Beneficiary,
		PartiesAccount:   l.PartiesAccount,
		RequestedAmount:  l.RequestedAmount,
		Version:          l.Version,
		Status:           l.ApprovalStatus,
	}
}

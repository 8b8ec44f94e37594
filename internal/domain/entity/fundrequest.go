package entity

import "time"

// ApprovalStatus is the lifecycle status of a fund request master.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "PENDING"
	StatusApproved ApprovalStatus = "APPROVED"
	StatusRejected ApprovalStatus = "REJECTED"
	// StatusPaid is set by an external payment process; this system never
	// transitions a request into it, only reads it back.
	StatusPaid ApprovalStatus = "PAID"
)

// IsValid returns true if the status is one the backend can report.
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPaid:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s ApprovalStatus) String() string {
	return string(s)
}

// FundRequestMaster is the parent record aggregating one or more fund
// request lines under one job and one designated approver.
type FundRequestMaster struct {
	CashFundRequestID    int64             `json:"cashFundRequestId,omitempty"`
	JobID                int64             `json:"jobId"`
	JobNumber            string            `json:"jobNumber,omitempty"`
	TotalRequestedAmount float64           `json:"totalRequestedAmount"`
	TotalApprovedAmount  float64           `json:"totalApprovedAmount"`
	ApprovalStatus       ApprovalStatus    `json:"approvalStatus"`
	ApprovedBy           *int64            `json:"approvedBy,omitempty"`
	ApprovedOn           *time.Time        `json:"approvedOn,omitempty"`
	RequestedTo          int64             `json:"requestedTo"`
	RequestedToName      string            `json:"requestedToName,omitempty"`
	CreatedBy            int64             `json:"createdBy"`
	CreatedOn            time.Time         `json:"createdOn"`
	Version              int64             `json:"version"`
	Lines                []FundRequestLine `json:"internalCashFundsRequestDetails,omitempty"`
}

// LineCount returns the number of line items on the master.
func (m *FundRequestMaster) LineCount() int {
	return len(m.Lines)
}

// RequestedSum returns the sum of the lines' requested amounts.
func (m *FundRequestMaster) RequestedSum() float64 {
	var total float64
	for _, l := range m.Lines {
		total += l.RequestedAmount
	}
	return total
}

// ApprovedSum returns the sum of the lines' approved amounts.
func (m *FundRequestMaster) ApprovedSum() float64 {
	var total float64
	for _, l := range m.Lines {
		total += l.ApprovedAmount
	}
	return total
}

// FundRequestLine is a single expense-head/beneficiary/amount tuple within
// a master. ChargesID mirrors HeadCoaID in backend payloads.
type FundRequestLine struct {
	InternalFundsRequestCashID int64          `json:"internalFundsRequestCashId,omitempty"`
	CashFundRequestMasterID    int64          `json:"cashFundRequestMasterId,omitempty"`
	JobID                      int64          `json:"jobId"`
	JobNumber                  string         `json:"jobNumber,omitempty"`
	HeadCoaID                  int64          `json:"headCoaId"`
	HeadOfAccount              string         `json:"headOfAccount,omitempty"`
	ChargesID                  int64          `json:"chargesId"`
	BeneficiaryCoaID           int64          `json:"beneficiaryCoaId"`
	Beneficiary                string         `json:"beneficiary,omitempty"`
	PartiesAccount             string         `json:"partiesAccount,omitempty"`
	RequestedAmount            float64        `json:"requestedAmount"`
	ApprovedAmount             float64        `json:"approvedAmount"`
	ApprovalStatus             ApprovalStatus `json:"approvalStatus"`
	RequestedTo                int64          `json:"requestedTo,omitempty"`
	CreatedBy                  int64          `json:"createdBy,omitempty"`
	CreatedOn                  time.Time      `json:"createdOn,omitempty"`
	Version                    int64          `json:"version"`
}

package entity

// Job is a freight job order reference row.
type Job struct {
	JobID       int64  `json:"jobId"`
	JobNumber   string `json:"jobNumber"`
	Description string `json:"description,omitempty"`
	VesselName  string `json:"vesselName,omitempty"`
}

// ChargeHead is an expense-head (charges of account) reference row.
type ChargeHead struct {
	ChargesID     int64  `json:"chargesId"`
	ChargeCode    string `json:"chargeCode"`
	ChargeName    string `json:"chargeName"`
	HeadOfAccount string `json:"headOfAccount,omitempty"`
}

// DisplayName returns the label shown for the expense head, preferring the
// dedicated head-of-account name.
func (c ChargeHead) DisplayName() string {
	if c.HeadOfAccount != "" {
		return c.HeadOfAccount
	}
	return c.ChargeName
}

// Party is a beneficiary reference row.
type Party struct {
	PartyID            int64  `json:"partyId"`
	PartyCode          string `json:"partyCode"`
	PartyName          string `json:"partyName"`
	PreferredPayeeName string `json:"preferredPayeeName,omitempty"`
}

// PayeeAccount derives the "parties account" display value: preferred payee
// name, falling back to party name, then party code.
func (p Party) PayeeAccount() string {
	if p.PreferredPayeeName != "" {
		return p.PreferredPayeeName
	}
	if p.PartyName != "" {
		return p.PartyName
	}
	return p.PartyCode
}

// User is a back-office user reference row; requestors (designated
// approvers) are selected from these.
type User struct {
	UserID      int64  `json:"userId"`
	UserName    string `json:"userName"`
	DisplayName string `json:"displayName,omitempty"`
	LarkOpenID  string `json:"larkOpenId,omitempty"`
}

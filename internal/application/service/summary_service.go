package service

import (
	"context"

	"github.com/harborline/freightdesk/internal/application/port"
	"github.com/harborline/freightdesk/internal/backend"
	"github.com/harborline/freightdesk/internal/domain/entity"
)

// StatusSummary is one dashboard tile: count and amount sums for one status.
type StatusSummary struct {
	Status         entity.ApprovalStatus `json:"status"`
	Count          int                   `json:"count"`
	RequestedTotal float64               `json:"requestedTotal"`
	ApprovedTotal  float64               `json:"approvedTotal"`
}

// Summary is the derived view over the full fetched collection.
type Summary struct {
	ByStatus    []StatusSummary `json:"byStatus"`
	MasterCount int             `json:"masterCount"`
	LineCount   int             `json:"lineCount"`
}

// summaryOrder fixes tile ordering for presentation.
var summaryOrder = []entity.ApprovalStatus{
	entity.StatusPending,
	entity.StatusApproved,
	entity.StatusRejected,
	entity.StatusPaid,
}

// Summarize folds per-status counts and sums plus a global line count out
// of an already-fetched collection. Pure: no network, no mutation.
func Summarize(masters []entity.FundRequestMaster) Summary {
	byStatus := make(map[entity.ApprovalStatus]*StatusSummary, len(summaryOrder))
	summary := Summary{MasterCount: len(masters)}

	for _, m := range masters {
		tile, ok := byStatus[m.ApprovalStatus]
		if !ok {
			tile = &StatusSummary{Status: m.ApprovalStatus}
			byStatus[m.ApprovalStatus] = tile
		}
		tile.Count++
		tile.RequestedTotal += m.TotalRequestedAmount
		tile.ApprovedTotal += m.TotalApprovedAmount
		summary.LineCount += m.LineCount()
	}

	for _, status := range summaryOrder {
		if tile, ok := byStatus[status]; ok {
			summary.ByStatus = append(summary.ByStatus, *tile)
			delete(byStatus, status)
		}
	}
	// Anything the backend reports outside the known lifecycle still shows up.
	for _, tile := range byStatus {
		summary.ByStatus = append(summary.ByStatus, *tile)
	}
	return summary
}

// SummaryService serves the dashboard tiles.
type SummaryService interface {
	Overview(ctx context.Context) (*Summary, error)
}

type summaryServiceImpl struct {
	fundAPI port.FundRequestAPI
}

// NewSummaryService creates the status aggregation service.
func NewSummaryService(fundAPI port.FundRequestAPI) SummaryService {
	return &summaryServiceImpl{fundAPI: fundAPI}
}

func (s *summaryServiceImpl) Overview(ctx context.Context) (*Summary, error) {
	masters, err := s.fundAPI.ListFundRequests(ctx, backend.ListQuery{})
	if err != nil {
		return nil, err
	}
	summary := Summarize(masters)
	return &summary, nil
}

package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/harborline/freightdesk/internal/domain/entity"
)

const fundRequestPath = "InternalCashFundsRequest"

// ListFundRequests fetches masters matching the query.
func (c *Client) ListFundRequests(ctx context.Context, q ListQuery) ([]entity.FundRequestMaster, error) {
	var masters []entity.FundRequestMaster
	if err := c.do(ctx, http.MethodPost, fundRequestPath+"/GetList", q, &masters); err != nil {
		return nil, err
	}
	return masters, nil
}

// GetFundRequest fetches one master with its nested line items.
func (c *Client) GetFundRequest(ctx context.Context, id int64) (*entity.FundRequestMaster, error) {
	var master entity.FundRequestMaster
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", fundRequestPath, id), nil, &master); err != nil {
		return nil, err
	}
	return &master, nil
}

// CreateFundRequestLine persists one new line item and returns the
// server-assigned record.
func (c *Client) CreateFundRequestLine(ctx context.Context, line entity.FundRequestLine) (*entity.FundRequestLine, error) {
	var created entity.FundRequestLine
	if err := c.do(ctx, http.MethodPost, fundRequestPath, line, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateFundRequestLine updates one existing line item (edit mode). The
// payload must carry the server id and current version.
func (c *Client) UpdateFundRequestLine(ctx context.Context, line entity.FundRequestLine) (*entity.FundRequestLine, error) {
	var updated entity.FundRequestLine
	if err := c.do(ctx, http.MethodPut, fundRequestPath, line, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateFundRequest sends the consolidated master + full line array update
// used by the approval and rejection commits.
func (c *Client) UpdateFundRequest(ctx context.Context, master entity.FundRequestMaster) (*entity.FundRequestMaster, error) {
	var updated entity.FundRequestMaster
	if err := c.do(ctx, http.MethodPut, fundRequestPath, master, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteFundRequest deletes a master; the backend cascades to its lines.
func (c *Client) DeleteFundRequest(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", fundRequestPath, id), nil, nil)
}

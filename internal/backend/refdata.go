package backend

import (
	"context"
	"net/http"

	"github.com/harborline/freightdesk/internal/domain/entity"
)

// ListJobs fetches job order reference rows.
func (c *Client) ListJobs(ctx context.Context, q ListQuery) ([]entity.Job, error) {
	var jobs []entity.Job
	if err := c.do(ctx, http.MethodPost, "Job/GetList", q, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListChargeHeads fetches expense-head reference rows.
func (c *Client) ListChargeHeads(ctx context.Context, q ListQuery) ([]entity.ChargeHead, error) {
	var heads []entity.ChargeHead
	if err := c.do(ctx, http.MethodPost, "ChargesMaster/GetList", q, &heads); err != nil {
		return nil, err
	}
	return heads, nil
}

// ListParties fetches beneficiary reference rows.
func (c *Client) ListParties(ctx context.Context, q ListQuery) ([]entity.Party, error) {
	var parties []entity.Party
	if err := c.do(ctx, http.MethodPost, "Party/GetList", q, &parties); err != nil {
		return nil, err
	}
	return parties, nil
}

// ListUsers fetches user reference rows (requestor candidates).
func (c *Client) ListUsers(ctx context.Context, q ListQuery) ([]entity.User, error) {
	var users []entity.User
	if err := c.do(ctx, http.MethodPost, "User/GetList", q, &users); err != nil {
		return nil, err
	}
	return users, nil
}

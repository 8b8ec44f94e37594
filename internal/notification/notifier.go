// Package notification delivers best-effort Lark direct messages for
// workflow events: the designated approver hears about new submissions, the
// creator hears about decisions. Delivery failures are logged and never
// propagate into the workflow.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/harborline/freightdesk/internal/domain/entity"
)

// Config holds Lark app credentials. Empty credentials disable delivery.
type Config struct {
	AppID     string
	AppSecret string
}

// LarkNotifier sends workflow messages through Lark.
type LarkNotifier struct {
	client *lark.Client
	logger *zap.Logger
}

// NewLarkNotifier creates a notifier, or nil when unconfigured; callers and
// the Nop fallback handle the disabled case.
func NewLarkNotifier(cfg Config, logger *zap.Logger) *LarkNotifier {
	if cfg.AppID == "" || cfg.AppSecret == "" {
		return nil
	}
	client := lark.NewClient(cfg.AppID, cfg.AppSecret, lark.WithEnableTokenCache(true))
	return &LarkNotifier{client: client, logger: logger}
}

// SubmissionCreated messages the designated approver about a new batch.
func (n *LarkNotifier) SubmissionCreated(ctx context.Context, approver entity.User, jobNumber string, lineCount int, totalRequested float64) {
	text := fmt.Sprintf("Fund request awaiting your approval: job %s, %d line(s), total %.2f",
		jobNumber, lineCount, totalRequested)
	n.sendText(ctx, approver, text)
}

// DecisionMade messages the request's creator with the outcome.
func (n *LarkNotifier) DecisionMade(ctx context.Context, creator entity.User, masterID int64, status entity.ApprovalStatus, totalApproved float64) {
	var text string
	switch status {
	case entity.StatusApproved:
		text = fmt.Sprintf("Fund request #%d approved for %.2f", masterID, totalApproved)
	case entity.StatusRejected:
		text = fmt.Sprintf("Fund request #%d was rejected", masterID)
	default:
		text = fmt.Sprintf("Fund request #%d moved to %s", masterID, status)
	}
	n.sendText(ctx, creator, text)
}

func (n *LarkNotifier) sendText(ctx context.Context, recipient entity.User, text string) {
	if recipient.LarkOpenID == "" {
		n.logger.Debug("Recipient has no Lark open id, skipping notification",
			zap.Int64("user_id", recipient.UserID))
		return
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		n.logger.Warn("Failed to encode notification", zap.Error(err))
		return
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("open_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(recipient.LarkOpenID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Warn("Failed to send notification",
			zap.String("open_id", recipient.LarkOpenID),
			zap.Error(err))
		return
	}
	if !resp.Success() {
		n.logger.Warn("Notification rejected by Lark",
			zap.String("open_id", recipient.LarkOpenID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
	}
}

// NopNotifier drops every notification; used when Lark is unconfigured.
type NopNotifier struct{}

func (NopNotifier) SubmissionCreated(context.Context, entity.User, string, int, float64) {}

func (NopNotifier) DecisionMade(context.Context, entity.User, int64, entity.ApprovalStatus, float64) {
}

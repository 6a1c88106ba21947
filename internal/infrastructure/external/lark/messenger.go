package lark

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/garyjia/budget-ledger/internal/application/port"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

const (
	defaultReceiveIDType = "user_id"
	msgTypeText          = "text"
)

// messageCreator is the IM message endpoint of the SDK
type messageCreator interface {
	Create(ctx context.Context, req *larkIm.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkIm.CreateMessageResp, error)
}

// Messenger implements port.RequesterNotifier with Lark text messages
type Messenger struct {
	messages      messageCreator
	receiveIDType string
	logger        *zap.Logger
}

// NewMessenger creates a Lark notifier for the configured app
func NewMessenger(cfg Config, logger *zap.Logger) *Messenger {
	return newMessenger(newClient(cfg, logger).Im.Message, cfg.ReceiveIDType, logger)
}

func newMessenger(messages messageCreator, receiveIDType string, logger *zap.Logger) *Messenger {
	if receiveIDType == "" {
		receiveIDType = defaultReceiveIDType
	}
	return &Messenger{
		messages:      messages,
		receiveIDType: receiveIDType,
		logger:        logger,
	}
}

// Notify sends a text message to the user
func (m *Messenger) Notify(ctx context.Context, userID string, message string) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}
	if message == "" {
		return fmt.Errorf("message cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType(m.receiveIDType).
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(userID).
			MsgType(msgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := m.messages.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("receive_id", userID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("receive_id", userID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	m.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("receive_id", userID))

	return nil
}

// Verify interface compliance
var _ port.RequesterNotifier = (*Messenger)(nil)

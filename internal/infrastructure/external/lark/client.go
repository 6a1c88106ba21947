package lark

import (
	"context"
	"fmt"
	"time"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 10 * time.Second

// Config holds the Lark app used to notify requesters
type Config struct {
	AppID     string
	AppSecret string

	// ReceiveIDType tells Lark how to interpret requester ids
	// (open_id, user_id, union_id or email)
	ReceiveIDType string

	// BaseURL selects the Lark or Feishu open platform; empty means Feishu
	BaseURL string

	RequestTimeout time.Duration
}

// newClient builds an SDK client whose own logging goes through zap
func newClient(cfg Config, logger *zap.Logger) *lark.Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	opts := []lark.ClientOptionFunc{
		lark.WithLogger(sdkLogger{logger: logger.Named("lark-sdk").Sugar()}),
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
		lark.WithReqTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lark.WithOpenBaseUrl(cfg.BaseURL))
	}

	return lark.NewClient(cfg.AppID, cfg.AppSecret, opts...)
}

// sdkLogger adapts zap to larkcore.Logger
type sdkLogger struct {
	logger *zap.SugaredLogger
}

func (l sdkLogger) Debug(_ context.Context, args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l sdkLogger) Info(_ context.Context, args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l sdkLogger) Warn(_ context.Context, args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l sdkLogger) Error(_ context.Context, args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

var _ larkcore.Logger = sdkLogger{}

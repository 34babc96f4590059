package broker

import (
	"context"
	"fmt"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"

	"github.com/camuig/signal-desk/internal/config"
	"github.com/camuig/signal-desk/internal/logger"
)

const (
	sandboxEndpoint = "sandbox-invest-public-api.tinkoff.ru:443"
	liveEndpoint    = "invest-public-api.tinkoff.ru:443"
)

// BrokerClient is a read-only T-Invest connection used for market data.
type BrokerClient struct {
	Client *investgo.Client
	Logger *logger.Logger
}

func NewBrokerClient(ctx context.Context, cfg config.TinkoffConfig, log *logger.Logger) (*BrokerClient, error) {
	endpoint := liveEndpoint
	if cfg.Sandbox {
		endpoint = sandboxEndpoint
	}

	investCfg := investgo.Config{
		EndPoint:  endpoint,
		Token:     cfg.Token,
		AccountId: cfg.AccountID,
		AppName:   "signal-desk",
	}

	client, err := investgo.NewClient(ctx, investCfg, log)
	if err != nil {
		return nil, fmt.Errorf("create investgo client: %w", err)
	}

	log.Info("tinkoff market data connected", "endpoint", endpoint)
	return &BrokerClient{Client: client, Logger: log}, nil
}

func (bc *BrokerClient) Stop() error {
	return bc.Client.Stop()
}

// Command demo walks the client side of the payment flow end to end:
// wallet discovery and connection against a scripted injected provider,
// then purchase and validation round-trips against a running API
// (start cmd/api first).
package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lihuiat/x402chainpay/internal/client"
	"github.com/lihuiat/x402chainpay/internal/config"
	"github.com/lihuiat/x402chainpay/internal/http/dto"
	"github.com/lihuiat/x402chainpay/internal/wallet"
	"go.uber.org/zap"
)

// scriptedProvider simulates an injected wallet: one authorized account,
// initially on the wrong chain, approving every prompt.
type scriptedProvider struct {
	address string
	chainID string
	target  string
	known   map[string]bool
}

func (p *scriptedProvider) Request(_ context.Context, method string, params any) (json.RawMessage, error) {
	switch method {
	case wallet.MethodRequestAccounts, wallet.MethodAccounts:
		return json.Marshal([]string{p.address})
	case wallet.MethodChainID:
		return json.Marshal(p.chainID)
	case wallet.MethodSwitchChain:
		if !p.known[p.target] {
			return nil, &wallet.ProviderError{Code: wallet.CodeUnrecognizedChain, Message: "unrecognized chain"}
		}
		p.chainID = p.target
		return json.Marshal(nil)
	case wallet.MethodAddChain:
		p.known[p.target] = true
		return json.Marshal(nil)
	default:
		return nil, &wallet.ProviderError{Code: -32601, Message: "method not supported: " + method}
	}
}

func (p *scriptedProvider) Subscribe(string, func(json.RawMessage)) {}

func main() {
	log, _ := zap.NewDevelopment()
	defer log.Sync()

	cfg := config.Load()

	// The provider starts on mainnet and does not know the target chain,
	// so the connector has to register it before switching.
	injected := []wallet.Provider{&scriptedProvider{
		address: "0xDemoBuyer000000000000000000000000000000cafe",
		chainID: "0x1",
		target:  cfg.ChainID,
		known:   map[string]bool{"0x1": true},
	}}

	provider, err := wallet.DiscoverProvider(injected, log)
	if err != nil {
		log.Fatal("no wallet available", zap.Error(err))
	}

	connector := wallet.NewConnector(provider, wallet.ChainParams{
		ChainID:        cfg.ChainID,
		ChainName:      cfg.ChainName,
		RPCURL:         cfg.ChainRPCURL,
		ExplorerURL:    cfg.ChainExplorer,
		CurrencySymbol: cfg.ChainCurrency,
	}, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := connector.Connect(ctx); err != nil {
		log.Fatal("wallet connection failed", zap.Error(err))
	}
	conn := connector.Connection()
	log.Info("wallet ready", zap.String("address", conn.Address), zap.String("chain_id", conn.ChainID))

	gateway := client.NewGateway(cfg.APIBaseURL, log)

	health, err := gateway.Health(ctx)
	if err != nil {
		log.Fatal("payment API unreachable", zap.Error(err))
	}
	log.Info("payment API up",
		zap.String("network", health.Config.Network),
		zap.String("mode", health.Config.Mode),
	)

	options, err := gateway.PaymentOptions(ctx)
	if err != nil {
		log.Fatal("failed to fetch catalog", zap.Error(err))
	}
	for _, opt := range options {
		log.Info("option", zap.String("name", opt.Name), zap.Float64("price", opt.Price))
	}

	// Buy a one-time grant and redeem it twice: the second attempt must be
	// refused.
	purchase, err := gateway.PayOneTime(ctx, dto.PayRequest{
		WalletAddress: conn.Address,
		Metadata:      map[string]any{"source": "demo"},
	})
	if err != nil {
		log.Fatal("purchase failed", zap.Error(err))
	}
	log.Info("purchased", zap.String("session_id", purchase.SessionID), zap.String("message", purchase.Message))

	first, err := gateway.GetSession(ctx, purchase.SessionID)
	if err != nil {
		log.Fatal("validation failed", zap.Error(err))
	}
	log.Info("first validation", zap.Bool("valid", first.Valid))

	second, err := gateway.GetSession(ctx, purchase.SessionID)
	if err != nil {
		log.Fatal("validation failed", zap.Error(err))
	}
	log.Info("second validation", zap.Bool("valid", second.Valid), zap.String("reason", second.Error))

	connector.Disconnect()
}

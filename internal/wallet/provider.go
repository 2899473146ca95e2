package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Standard injected-provider request vocabulary.
const (
	MethodAccounts        = "eth_accounts"
	MethodRequestAccounts = "eth_requestAccounts"
	MethodChainID         = "eth_chainId"
	MethodSwitchChain     = "wallet_switchEthereumChain"
	MethodAddChain        = "wallet_addEthereumChain"
	MethodPersonalSign    = "personal_sign"
)

// Provider notification events.
const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
)

// Well-known provider error codes (EIP-1193 / EIP-1474).
const (
	CodeUserRejected      = 4001
	CodeUnrecognizedChain = 4902
)

// Provider is the host-injected wallet object: a request/response channel
// plus out-of-band notifications.
type Provider interface {
	Request(ctx context.Context, method string, params any) (json.RawMessage, error)
	Subscribe(event string, handler func(json.RawMessage))
}

// ProviderError carries the raw code and message a provider reports. It is
// kept for local diagnostics only and never sent to the server.
type ProviderError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// IsUserRejection reports whether err is the provider's well-known
// "user rejected the request" signal.
func IsUserRejection(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == CodeUserRejected
}

func isUnrecognizedChain(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == CodeUnrecognizedChain
}

// DiscoverProvider normalizes the injected global slot to one concrete
// provider. Multiple extensions commonly stack into the same slot; the
// first is selected deterministically and a warning is logged. The caller
// never chooses interactively.
func DiscoverProvider(injected any, log *zap.Logger) (Provider, error) {
	switch v := injected.(type) {
	case nil:
		return nil, ErrNoProvider
	case Provider:
		return v, nil
	case []Provider:
		if len(v) == 0 {
			return nil, ErrNoProvider
		}
		if len(v) > 1 {
			log.Warn("multiple injected wallet providers detected, using the first", zap.Int("count", len(v)))
		}
		return v[0], nil
	default:
		return nil, ErrNoProvider
	}
}

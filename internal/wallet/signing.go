package wallet

import (
	"context"
	"encoding/json"
	"fmt"
)

// SigningClient is the handle a successful connection produces: the
// provider pinned to a verified account and chain. It is discarded on
// disconnect.
type SigningClient struct {
	provider Provider
	address  string
	chainID  string
}

func newSigningClient(provider Provider, address, chainID string) *SigningClient {
	return &SigningClient{provider: provider, address: address, chainID: chainID}
}

func (s *SigningClient) Address() string { return s.address }
func (s *SigningClient) ChainID() string { return s.chainID }

// SignMessage asks the wallet to sign an arbitrary message with the bound
// account.
func (s *SigningClient) SignMessage(ctx context.Context, message string) (string, error) {
	raw, err := s.provider.Request(ctx, MethodPersonalSign, []string{message, s.address})
	if err != nil {
		if IsUserRejection(err) {
			return "", ErrUserRejected
		}
		return "", fmt.Errorf("sign message: %w", err)
	}
	var sig string
	if err := json.Unmarshal(raw, &sig); err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}
	return sig, nil
}

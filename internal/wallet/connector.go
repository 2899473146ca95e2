package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Status is the wallet connection state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	default:
		return "disconnected"
	}
}

// Connection failure taxonomy. Raw provider errors are wrapped so the
// original code and message stay available via errors.As.
var (
	ErrNoProvider        = errors.New("no wallet provider available")
	ErrConnectInProgress = errors.New("connection attempt already in progress")
	ErrUserRejected      = errors.New("user cancelled the connection request")
	ErrNoAccounts        = errors.New("no accounts found in wallet")
	ErrSwitchRejected    = errors.New("network switch rejected by user")
	ErrAddChainRejected  = errors.New("network registration rejected by user")
	ErrConnectInvalid    = errors.New("connection attempt invalidated by a network change")
)

// ChainParams describes the network the connector requires, including the
// registration details handed to wallet_addEthereumChain when the provider
// does not know the chain.
type ChainParams struct {
	ChainID        string `json:"chainId"`
	ChainName      string `json:"chainName"`
	RPCURL         string `json:"-"`
	ExplorerURL    string `json:"-"`
	CurrencySymbol string `json:"-"`
}

// Connection is a snapshot of the connector's externally visible state.
// Address is non-empty exactly when Status is Connected.
type Connection struct {
	Status    Status
	Address   string
	ChainID   string
	LastError string
}

// Connector drives the wallet connection state machine against one
// discovered provider. At most one Connect attempt is in flight at a time;
// provider events (account switch, chain switch) arrive asynchronously and
// are applied as state transitions.
type Connector struct {
	provider Provider
	chain    ChainParams
	log      *zap.Logger

	mu         sync.Mutex
	status     Status
	address    string
	chainID    string
	lastError  string
	signer     *SigningClient
	connecting bool
	generation int
}

// NewConnector builds a connector and subscribes to the provider's
// notifications.
func NewConnector(provider Provider, chain ChainParams, log *zap.Logger) *Connector {
	c := &Connector{provider: provider, chain: chain, log: log}
	provider.Subscribe(EventAccountsChanged, c.onAccountsChanged)
	provider.Subscribe(EventChainChanged, c.onChainChanged)
	return c
}

// Connect negotiates account access and network identity, ending Connected
// with a bound signing client. A second Connect while one is suspended at a
// provider round-trip returns ErrConnectInProgress without issuing another
// authorization prompt. A hung provider leaves the connector in
// StatusConnecting; that is a recognized degraded state, surfaced by
// Connection().
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return ErrConnectInProgress
	}
	c.connecting = true
	c.status = StatusConnecting
	c.address = ""
	c.signer = nil
	c.lastError = ""
	gen := c.generation
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	address, err := c.requestAccounts(ctx)
	if err != nil {
		return c.fail(gen, err)
	}

	chainID, err := c.verifyNetwork(ctx)
	if err != nil {
		return c.fail(gen, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// A chainChanged event landed mid-connect; the attempt is void.
		return ErrConnectInvalid
	}
	c.status = StatusConnected
	c.address = address
	c.chainID = chainID
	c.signer = newSigningClient(c.provider, address, chainID)
	c.log.Info("wallet connected", zap.String("address", address), zap.String("chain_id", chainID))
	return nil
}

func (c *Connector) requestAccounts(ctx context.Context) (string, error) {
	raw, err := c.provider.Request(ctx, MethodRequestAccounts, nil)
	if err != nil {
		if IsUserRejection(err) {
			return "", ErrUserRejected
		}
		return "", fmt.Errorf("request accounts: %w", err)
	}

	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return "", fmt.Errorf("decode accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", ErrNoAccounts
	}
	return accounts[0], nil
}

// verifyNetwork reads the provider's chain and, on mismatch, negotiates a
// switch. An unrecognized chain is registered once via
// wallet_addEthereumChain before the switch is retried.
func (c *Connector) verifyNetwork(ctx context.Context) (string, error) {
	raw, err := c.provider.Request(ctx, MethodChainID, nil)
	if err != nil {
		return "", fmt.Errorf("read chain id: %w", err)
	}
	var current string
	if err := json.Unmarshal(raw, &current); err != nil {
		return "", fmt.Errorf("decode chain id: %w", err)
	}
	if current == c.chain.ChainID {
		return current, nil
	}

	switchParams := []map[string]string{{"chainId": c.chain.ChainID}}
	_, err = c.provider.Request(ctx, MethodSwitchChain, switchParams)
	if err != nil && isUnrecognizedChain(err) {
		if addErr := c.addChain(ctx); addErr != nil {
			return "", addErr
		}
		_, err = c.provider.Request(ctx, MethodSwitchChain, switchParams)
	}
	if err != nil {
		if IsUserRejection(err) {
			return "", ErrSwitchRejected
		}
		return "", fmt.Errorf("switch network: %w", err)
	}
	return c.chain.ChainID, nil
}

func (c *Connector) addChain(ctx context.Context) error {
	params := []map[string]any{{
		"chainId":   c.chain.ChainID,
		"chainName": c.chain.ChainName,
		"nativeCurrency": map[string]any{
			"name":     c.chain.CurrencySymbol,
			"symbol":   c.chain.CurrencySymbol,
			"decimals": 18,
		},
		"rpcUrls":           []string{c.chain.RPCURL},
		"blockExplorerUrls": []string{c.chain.ExplorerURL},
	}}
	if _, err := c.provider.Request(ctx, MethodAddChain, params); err != nil {
		if IsUserRejection(err) {
			return ErrAddChainRejected
		}
		return fmt.Errorf("register network: %w", err)
	}
	return nil
}

// fail records the error state unless the attempt was already invalidated
// by a concurrent event.
func (c *Connector) fail(gen int, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return ErrConnectInvalid
	}
	c.status = StatusError
	c.address = ""
	c.signer = nil
	c.lastError = err.Error()
	return err
}

// Disconnect clears all bound state. Idempotent.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = StatusDisconnected
	c.address = ""
	c.signer = nil
	c.lastError = ""
}

func (c *Connector) onAccountsChanged(raw json.RawMessage) {
	var accounts []string
	if err := json.Unmarshal(raw, &accounts); err != nil {
		c.log.Warn("malformed accountsChanged payload", zap.Error(err))
		return
	}

	if len(accounts) == 0 {
		c.log.Info("wallet reported no accounts, disconnecting")
		c.Disconnect()
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusConnected {
		return
	}
	// Authorization already exists; rebind without re-running Connect.
	c.address = accounts[0]
	c.signer = newSigningClient(c.provider, accounts[0], c.chainID)
	c.log.Info("wallet account switched", zap.String("address", accounts[0]))
}

// onChainChanged treats a network switch as unrecoverable for the current
// session: state is torn down and an explicit reconnect is required. Any
// in-flight Connect is invalidated.
func (c *Connector) onChainChanged(raw json.RawMessage) {
	var chainID string
	_ = json.Unmarshal(raw, &chainID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.status = StatusDisconnected
	c.address = ""
	c.signer = nil
	c.chainID = chainID
	c.lastError = ""
	c.log.Info("network changed, reconnect required", zap.String("chain_id", chainID))
}

// Connection returns a snapshot of the current state.
func (c *Connector) Connection() Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Connection{
		Status:    c.status,
		Address:   c.address,
		ChainID:   c.chainID,
		LastError: c.lastError,
	}
}

// Signer returns the signing client bound at connect time, or nil when not
// connected.
func (c *Connector) Signer() *SigningClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signer
}

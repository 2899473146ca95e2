package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lihuiat/x402chainpay/internal/http/dto"
	"go.uber.org/zap"
)

// Gateway is the typed client for the payment API's wire contract. The UI
// drives it; the core never depends on it.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewGateway(baseURL string, log *zap.Logger) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// Health checks the API and returns its advertised payment config.
func (g *Gateway) Health(ctx context.Context) (*dto.HealthResponse, error) {
	var out dto.HealthResponse
	if err := g.get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PaymentOptions fetches the purchase catalog.
func (g *Gateway) PaymentOptions(ctx context.Context) ([]dto.PaymentOption, error) {
	var out dto.PaymentOptionsResponse
	if err := g.get(ctx, "/payment-options", &out); err != nil {
		return nil, err
	}
	return out.Options, nil
}

// PaySession purchases a 24-hour session grant.
func (g *Gateway) PaySession(ctx context.Context, req dto.PayRequest) (*dto.PayResponse, error) {
	return g.pay(ctx, "/pay/session", req)
}

// PayOneTime purchases a single-use grant.
func (g *Gateway) PayOneTime(ctx context.Context, req dto.PayRequest) (*dto.PayResponse, error) {
	return g.pay(ctx, "/pay/onetime", req)
}

func (g *Gateway) pay(ctx context.Context, path string, req dto.PayRequest) (*dto.PayResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment API unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payment API returned %d: %s", resp.StatusCode, string(b))
	}

	var out dto.PayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession validates a session id. For one-time sessions the first
// successful call consumes the grant server-side; treat it as
// non-idempotent for that tier. A found-but-invalid session comes back
// with Valid=false and a reason, not an error.
func (g *Gateway) GetSession(ctx context.Context, id string) (*dto.ValidateResponse, error) {
	url := fmt.Sprintf("%s/session/%s", g.baseURL, id)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment API unavailable: %w", err)
	}
	defer resp.Body.Close()

	// 404 still carries a well-formed validation body.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payment API returned %d: %s", resp.StatusCode, string(b))
	}

	var out dto.ValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions returns the server's snapshot of currently valid sessions.
func (g *Gateway) ListSessions(ctx context.Context) ([]dto.SessionView, error) {
	var out dto.SessionsResponse
	if err := g.get(ctx, "/sessions", &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// ListPayments returns the recent payment history.
func (g *Gateway) ListPayments(ctx context.Context) (*dto.PaymentsResponse, error) {
	var out dto.PaymentsResponse
	if err := g.get(ctx, "/payments", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment API unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("payment API returned %d: %s", resp.StatusCode, string(b))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

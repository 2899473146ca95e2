package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lihuiat/x402chainpay/internal/http/dto"
	"go.uber.org/zap"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.HealthResponse{
			Status: "ok",
			Config: dto.HealthConfig{Network: "base-sepolia", PayTo: "0xSeller", Mode: "simulated"},
		})
	})
	mux.HandleFunc("POST /pay/onetime", func(w http.ResponseWriter, r *http.Request) {
		var req dto.PayRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(dto.PayResponse{
			Success:   true,
			SessionID: "sess_abc",
			Message:   "one-time access granted",
			Session:   dto.SessionView{ID: "sess_abc", Type: "onetime", WalletAddress: req.WalletAddress},
		})
	})
	mux.HandleFunc("GET /session/sess_abc", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dto.ValidateResponse{
			Valid:   true,
			Session: &dto.SessionView{ID: "sess_abc", Type: "onetime"},
		})
	})
	mux.HandleFunc("GET /session/sess_gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(dto.ValidateResponse{Valid: false, Error: "Session not found"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGatewayHealth(t *testing.T) {
	srv := testServer(t)
	g := NewGateway(srv.URL, zap.NewNop())

	health, err := g.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" || health.Config.Network != "base-sepolia" {
		t.Errorf("health: %+v", health)
	}
}

func TestGatewayPurchaseAndValidate(t *testing.T) {
	srv := testServer(t)
	g := NewGateway(srv.URL, zap.NewNop())
	ctx := context.Background()

	purchase, err := g.PayOneTime(ctx, dto.PayRequest{WalletAddress: "0xABC"})
	if err != nil {
		t.Fatalf("PayOneTime: %v", err)
	}
	if purchase.SessionID != "sess_abc" || purchase.Session.WalletAddress != "0xABC" {
		t.Errorf("purchase: %+v", purchase)
	}

	validation, err := g.GetSession(ctx, purchase.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !validation.Valid || validation.Session == nil {
		t.Errorf("validation: %+v", validation)
	}
}

func TestGatewayNotFoundCarriesBody(t *testing.T) {
	srv := testServer(t)
	g := NewGateway(srv.URL, zap.NewNop())

	// A 404 still decodes as a validation outcome, not a transport error.
	validation, err := g.GetSession(context.Background(), "sess_gone")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if validation.Valid || validation.Error != "Session not found" {
		t.Errorf("validation: %+v", validation)
	}
}

func TestGatewayUnreachableServer(t *testing.T) {
	g := NewGateway("http://127.0.0.1:1", zap.NewNop())
	if _, err := g.Health(context.Background()); err == nil {
		t.Fatal("expected an error against an unreachable server")
	}
}

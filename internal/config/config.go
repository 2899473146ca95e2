package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	// Server
	APIPort      string
	AllowOrigins string

	// Payment
	Network     string // chain the seller advertises, e.g. base-sepolia
	PayTo       string // seller receiving address, surfaced in /health
	PaymentMode string // "simulated": proofs are recorded, never verified

	SessionPriceUSD float64
	OneTimePriceUSD float64

	// Events: empty REDIS_URL keeps the in-process bus
	RedisURL string

	// Client demo
	APIBaseURL    string
	ChainID       string // hex, e.g. 0x14a34
	ChainName     string
	ChainRPCURL   string
	ChainExplorer string
	ChainCurrency string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIPort:      getEnv("API_PORT", "4021"),
		AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),

		Network:     getEnv("NETWORK", "base-sepolia"),
		PayTo:       getEnv("PAY_TO", "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"),
		PaymentMode: getEnv("PAYMENT_MODE", "simulated"),

		SessionPriceUSD: getEnvFloat("SESSION_PRICE_USD", 1.0),
		OneTimePriceUSD: getEnvFloat("ONETIME_PRICE_USD", 0.10),

		RedisURL: getEnv("REDIS_URL", ""),

		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:4021"),
		ChainID:       getEnv("CHAIN_ID", "0x14a34"),
		ChainName:     getEnv("CHAIN_NAME", "Base Sepolia"),
		ChainRPCURL:   getEnv("CHAIN_RPC_URL", "https://sepolia.base.org"),
		ChainExplorer: getEnv("CHAIN_EXPLORER", "https://sepolia.basescan.org"),
		ChainCurrency: getEnv("CHAIN_CURRENCY", "ETH"),
	}
}

func (c *Config) Validate(log *zap.Logger) {
	if c.PaymentMode != "simulated" {
		log.Warn("PAYMENT_MODE is not simulated; on-chain verification is not implemented", zap.String("mode", c.PaymentMode))
	}
	if c.PayTo == "" {
		log.Warn("PAY_TO is not set")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

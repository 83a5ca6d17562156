package oanda

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// PracticeURL is OANDA's practice/demo environment.
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is OANDA's live trading environment.
	LiveURL = "https://api-fxtrade.oanda.com"
)

type Config struct {
	Token     string
	AccountID string
	BaseURL   string
}

// BaseURL maps an environment name to the API host.
func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "practice", "demo", "":
		return PracticeURL, nil
	case "live":
		return LiveURL, nil
	default:
		return "", fmt.Errorf("unknown OANDA env %q (want practice|live)", env)
	}
}

// ConfigFromEnv reads OANDA_TOKEN and OANDA_ACCOUNT_ID from the
// environment (the CLI loads .env first).
func ConfigFromEnv(env string) (Config, error) {
	base, err := BaseURL(env)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Token:     os.Getenv("OANDA_TOKEN"),
		AccountID: os.Getenv("OANDA_ACCOUNT_ID"),
		BaseURL:   base,
	}
	if cfg.Token == "" {
		return Config{}, errors.New("OANDA_TOKEN is not set")
	}
	if cfg.AccountID == "" {
		return Config{}, errors.New("OANDA_ACCOUNT_ID is not set")
	}
	return cfg, nil
}

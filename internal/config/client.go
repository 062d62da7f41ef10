package config

import (
	"errors"
	"time"
)

// ClientConfig configures the mini-app session client and its CLI host.
type ClientConfig struct {
	APIURL         string        `koanf:"api_url"`
	StateDir       string        `koanf:"state_dir"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
}

func defaultClientConfig() *ClientConfig {
	return &ClientConfig{
		APIURL:         "http://localhost:8080",
		StateDir:       ".miniapp",
		RequestTimeout: 10 * time.Second,
		SessionTimeout: 30 * time.Minute,
		SweepInterval:  5 * time.Minute,
	}
}

var clientEnv = map[string]string{
	"api_url":                 "api_url",
	"miniapp_state_dir":       "state_dir",
	"miniapp_request_timeout": "request_timeout",
	"miniapp_session_timeout": "session_timeout",
	"miniapp_sweep_interval":  "sweep_interval",
}

// LoadClient reads the client configuration with the same layering as Load.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := load(defaultClientConfig(), clientEnv, cfg); err != nil {
		return nil, err
	}
	if cfg.APIURL == "" {
		return nil, errors.New("API_URL must not be empty")
	}
	if cfg.SessionTimeout <= 0 || cfg.SweepInterval <= 0 {
		return nil, errors.New("session timeout and sweep interval must be positive")
	}
	return cfg, nil
}

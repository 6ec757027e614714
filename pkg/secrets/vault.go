// Package secrets loads secrets from a Vault KV engine into the process
// environment so configuration can read them like any other variable.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/isbx/locations/backend/pkg/retry"
)

// VaultConfig selects a KV secret and how to apply it
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration

	// Overwrite replaces variables that are already set
	Overwrite bool
}

// VaultResult reports what Apply did
type VaultResult struct {
	Loaded  int
	Skipped int
}

// ErrVaultIncomplete is returned when Vault is enabled without an address,
// token or path
var ErrVaultIncomplete = errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")

// VaultConfigFromEnv reads VAULT_* variables
func VaultConfigFromEnv() VaultConfig {
	cfg := VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     "secret",
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: 2,
		Timeout:   5 * time.Second,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
	if mount := os.Getenv("VAULT_MOUNT"); mount != "" {
		cfg.Mount = mount
	}
	if v, err := strconv.Atoi(os.Getenv("VAULT_KV_VERSION")); err == nil && (v == 1 || v == 2) {
		cfg.KVVersion = v
	}
	if ms, err := strconv.Atoi(os.Getenv("VAULT_TIMEOUT_MS")); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

// VaultLoader fetches one KV secret
type VaultLoader struct {
	cfg    VaultConfig
	client *http.Client
	retry  retry.Config
}

// NewVaultLoader creates a loader. A nil client uses one with cfg.Timeout.
func NewVaultLoader(cfg VaultConfig, client *http.Client) *VaultLoader {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = 3
	retryConfig.InitialDelay = 200 * time.Millisecond
	retryConfig.MaxTotalTimeout = 3 * cfg.Timeout

	return &VaultLoader{cfg: cfg, client: client, retry: retryConfig}
}

// Fetch returns the secret's key/value pairs as strings
func (l *VaultLoader) Fetch(ctx context.Context) (map[string]string, error) {
	if l.cfg.Addr == "" || l.cfg.Token == "" || l.cfg.Path == "" {
		return nil, ErrVaultIncomplete
	}
	url, err := l.url()
	if err != nil {
		return nil, err
	}

	var body []byte
	err = retry.Do(ctx, l.retry, func() error {
		var fetchErr error
		body, fetchErr = l.get(ctx, url)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode vault response: %w", err)
	}

	data := payload.Data
	if l.cfg.KVVersion == 2 {
		var inner map[string]json.RawMessage
		if raw, ok := payload.Data["data"]; ok {
			if err := json.Unmarshal(raw, &inner); err != nil {
				return nil, fmt.Errorf("failed to decode vault KV v2 data: %w", err)
			}
		}
		data = inner
	}
	if data == nil {
		return nil, fmt.Errorf("vault response for %s has no data", l.cfg.Path)
	}

	out := make(map[string]string, len(data))
	for key, raw := range data {
		out[key] = stringify(raw)
	}
	return out, nil
}

// Apply fetches the secret and exports it into the environment
func (l *VaultLoader) Apply(ctx context.Context) (VaultResult, error) {
	values, err := l.Fetch(ctx)
	if err != nil {
		return VaultResult{}, err
	}

	var result VaultResult
	for key, value := range values {
		if !l.cfg.Overwrite && os.Getenv(key) != "" {
			result.Skipped++
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return result, err
		}
		result.Loaded++
	}
	return result, nil
}

// ApplyFromEnv loads VAULT_* settings and applies the secret when enabled
func ApplyFromEnv(ctx context.Context) (VaultResult, error) {
	cfg := VaultConfigFromEnv()
	if !cfg.Enabled {
		return VaultResult{}, nil
	}
	return NewVaultLoader(cfg, nil).Apply(ctx)
}

func (l *VaultLoader) url() (string, error) {
	addr := strings.TrimRight(l.cfg.Addr, "/")
	mount := strings.Trim(l.cfg.Mount, "/")
	path := strings.TrimLeft(l.cfg.Path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", errors.New("vault address, mount and path must be set")
	}
	if l.cfg.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

func (l *VaultLoader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", l.cfg.Token)
	if l.cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", l.cfg.Namespace)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("vault fetch failed: %s %s", resp.Status, strings.TrimSpace(string(body)))
		if resp.StatusCode < 500 {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	return body, nil
}

// stringify renders JSON scalars without quotes and anything else as JSON
func stringify(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

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
)

// VaultConfig describes where the service credentials live in a Vault KV engine.
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Overwrite bool
}

// Result reports how many keys were exported into the environment.
type Result struct {
	Path    string
	Loaded  int
	Skipped int
}

// LoadVaultConfigFromEnv reads VAULT_* variables.
func LoadVaultConfigFromEnv() VaultConfig {
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
	if v, err := strconv.Atoi(os.Getenv("VAULT_KV_VERSION")); err == nil {
		cfg.KVVersion = v
	}
	if ms, err := strconv.Atoi(os.Getenv("VAULT_TIMEOUT_MS")); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

// ExportToEnv fetches the secret at cfg.Path and sets each key as an environment
// variable, so config.Load picks up MODEL_API_KEY, MAPS_API_KEY and friends.
// Existing variables win unless cfg.Overwrite is set.
func ExportToEnv(ctx context.Context, cfg VaultConfig, client *http.Client) (Result, error) {
	res := Result{Path: cfg.Path}
	if !cfg.Enabled {
		return res, nil
	}
	if cfg.Addr == "" || cfg.Token == "" || cfg.Path == "" {
		return res, errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	data, err := fetch(ctx, cfg, client)
	if err != nil {
		return res, err
	}

	for key, value := range data {
		if !cfg.Overwrite && os.Getenv(key) != "" {
			res.Skipped++
			continue
		}
		if err := os.Setenv(key, stringify(value)); err != nil {
			return res, fmt.Errorf("export %s: %w", key, err)
		}
		res.Loaded++
	}
	return res, nil
}

func fetch(ctx context.Context, cfg VaultConfig, client *http.Client) (map[string]any, error) {
	addr := strings.TrimRight(cfg.Addr, "/")
	mount := strings.Trim(cfg.Mount, "/")
	path := strings.TrimLeft(cfg.Path, "/")

	url := fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path)
	if cfg.KVVersion == 1 {
		url = fmt.Sprintf("%s/v1/%s/%s", addr, mount, path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build vault request: %w", err)
	}
	req.Header.Set("X-Vault-Token", cfg.Token)
	if cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", cfg.Namespace)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault fetch failed: %s %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode vault response: %w", err)
	}
	if payload.Data == nil {
		return nil, errors.New("vault response missing data")
	}
	if cfg.KVVersion == 1 {
		return payload.Data, nil
	}
	inner, ok := payload.Data["data"].(map[string]any)
	if !ok {
		return nil, errors.New("vault response missing data for KV v2")
	}
	return inner, nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

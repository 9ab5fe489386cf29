// Package config locates and loads the shared CLI configuration: the
// JSON-RPC endpoint and the default fee-payer keypair path.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrConfigMissing reports an absent or unreadable configuration file.
	ErrConfigMissing = errors.New("config: configuration file missing or unreadable")
	// ErrKeypairIO reports a keypair file that cannot be read or parsed.
	ErrKeypairIO = errors.New("config: keypair file missing or malformed")
)

// Config mirrors the CLI configuration file.
type Config struct {
	JSONRPCURL  string `json:"json_rpc_url"`
	KeypairPath string `json:"keypair_path"`
}

// DefaultPath returns the conventional configuration file location under
// the user's home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfigMissing, err)
	}
	return filepath.Join(home, ".config", "solana", "cli", "config.json"), nil
}

// Load reads and decodes the configuration file at path. An empty path
// falls back to DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigMissing, path, err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigMissing, path, err)
	}
	if cfg.JSONRPCURL == "" {
		return nil, fmt.Errorf("%w: %s: json_rpc_url not set", ErrConfigMissing, path)
	}
	if cfg.KeypairPath == "" {
		return nil, fmt.Errorf("%w: %s: keypair_path not set", ErrConfigMissing, path)
	}
	return &cfg, nil
}

// LoadKeypair reads an ed25519 keypair file (a JSON array of 64 bytes).
func LoadKeypair(path string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKeypairIO, path, err)
	}
	return key, nil
}

// Keypair loads the fee-payer keypair named by the configuration.
func (c *Config) Keypair() (solana.PrivateKey, error) {
	return LoadKeypair(c.KeypairPath)
}

package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"resumescan/internal/config"
	"resumescan/internal/errors"
)

// VaultSecretReader defines the Vault operations the watcher needs
type VaultSecretReader interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// APIKeysCallback receives the key set read from a new secret version
type APIKeysCallback func(keys []string)

// VaultWatcher polls the API key secret and hands each new version's keys to
// a callback. Versions at or below the last seen one are ignored.
type VaultWatcher struct {
	mu sync.RWMutex

	client       VaultSecretReader
	secretPath   string
	pollInterval time.Duration
	onKeys       APIKeysCallback
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastCount   int
}

// NewVaultWatcher creates a watcher for the secret at secretPath
func NewVaultWatcher(client VaultSecretReader, secretPath string, pollInterval time.Duration, onKeys APIKeysCallback, logger *errors.Logger) *VaultWatcher {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &VaultWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onKeys:       onKeys,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start begins polling Vault for secret changes
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}
	if vw.pollInterval <= 0 {
		return fmt.Errorf("vault watcher poll interval must be positive")
	}
	vw.running = true
	go vw.pollLoop()
	vw.logger.Info("Vault watcher started", "secret_path", vw.secretPath, "poll_interval", vw.pollInterval)
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logger.Info("Vault watcher stopped")
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := vw.poll(); err != nil {
				vw.logger.LogError(err, "Failed to check Vault for API key updates")
			}
		case <-vw.stopChan:
			return
		}
	}
}

// poll reads the secret once and applies it when its version advanced
func (vw *VaultWatcher) poll() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return false, fmt.Errorf("secret %s not found", vw.secretPath)
	}

	vw.mu.Lock()
	if secret.Version <= vw.lastVersion {
		vw.mu.Unlock()
		return false, nil
	}
	keys := parseKeys(secret.Data["keys"])
	if len(keys) == 0 {
		vw.mu.Unlock()
		// an empty key set would disable auth
		return false, fmt.Errorf("secret %s version %d has no API keys", vw.secretPath, secret.Version)
	}
	vw.lastVersion = secret.Version
	vw.lastCount = len(keys)
	vw.mu.Unlock()

	vw.logger.Info("API keys rotated from Vault", "version", secret.Version, "count", len(keys))
	vw.onKeys(keys)
	return true, nil
}

func parseKeys(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	case []string:
		parts = v
	}

	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
		"key_count":     vw.lastCount,
	}
}

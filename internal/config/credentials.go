package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/ierr"
)

const (
	EnvStoreURL = "LICENSE_STORE_URL"
	EnvStoreKey = "LICENSE_STORE_KEY"
)

// StoreCredentials locate and authenticate against the remote record store.
// Key is the service secret; it overrides any password embedded in the URL.
type StoreCredentials struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type CredentialSource string

const (
	SourceEnvironment CredentialSource = "environment"
	SourceOverride    CredentialSource = "override"
	SourcePersisted   CredentialSource = "persisted"
)

// ResolveStoreCredentials walks the fixed bootstrap chain: environment
// variables first, then explicit override parameters (persisted for future
// runs when they validate), then a previously persisted credentials file.
// The first source that yields a valid URL wins. When no source does, the
// caller gets ErrStoreNotConfigured and must block further operation.
func ResolveStoreCredentials(logger *zap.Logger, getenv func(string) string, override *StoreCredentials, path string) (StoreCredentials, CredentialSource, error) {
	log := logger.Named("Credentials")

	if creds := (StoreCredentials{URL: getenv(EnvStoreURL), Key: getenv(EnvStoreKey)}); creds.URL != "" {
		if err := creds.Validate(); err != nil {
			return StoreCredentials{}, "", fmt.Errorf("%s is set but invalid: %w", EnvStoreURL, err)
		}
		log.Info("Using store credentials from environment")
		return creds, SourceEnvironment, nil
	}

	if override != nil && override.URL != "" {
		if err := override.Validate(); err != nil {
			log.Warn("Ignoring invalid store credential override", zap.Error(err))
		} else {
			if err := persistCredentials(*override, path); err != nil {
				log.Warn("Failed to persist store credentials for future runs", zap.String("path", path), zap.Error(err))
			} else {
				log.Info("Persisted store credentials", zap.String("path", path))
			}
			return *override, SourceOverride, nil
		}
	}

	creds, err := loadPersistedCredentials(path)
	if err == nil {
		if err := creds.Validate(); err != nil {
			return StoreCredentials{}, "", fmt.Errorf("persisted credentials at %s are invalid: %w", path, err)
		}
		log.Info("Using persisted store credentials", zap.String("path", path))
		return creds, SourcePersisted, nil
	}
	if !os.IsNotExist(err) {
		return StoreCredentials{}, "", fmt.Errorf("reading persisted credentials from %s: %w", path, err)
	}

	return StoreCredentials{}, "", ierr.ErrStoreNotConfigured
}

func (c StoreCredentials) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("malformed store url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("unsupported store url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("store url is missing a host")
	}
	return nil
}

func persistCredentials(creds StoreCredentials, path string) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func loadPersistedCredentials(path string) (StoreCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StoreCredentials{}, err
	}
	var creds StoreCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return StoreCredentials{}, fmt.Errorf("malformed credentials file: %w", err)
	}
	return creds, nil
}

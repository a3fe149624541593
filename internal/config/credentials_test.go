package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/ierr"
)

func noEnv(string) string { return "" }

func credsPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "store-credentials.json")
}

func TestResolveEnvironmentWins(t *testing.T) {
	env := map[string]string{
		EnvStoreURL: "postgres://db.example.com:5432/licenses",
		EnvStoreKey: "env-secret",
	}
	override := &StoreCredentials{URL: "postgres://other.example.com/licenses", Key: "override-secret"}

	creds, source, err := ResolveStoreCredentials(zap.NewNop(), func(k string) string { return env[k] }, override, credsPath(t))
	if err != nil {
		t.Fatalf("ResolveStoreCredentials: %v", err)
	}
	if source != SourceEnvironment {
		t.Errorf("source = %q, want %q", source, SourceEnvironment)
	}
	if creds.URL != env[EnvStoreURL] || creds.Key != "env-secret" {
		t.Errorf("creds = %+v, want environment values", creds)
	}
}

func TestResolveInvalidEnvironmentFailsHard(t *testing.T) {
	env := map[string]string{EnvStoreURL: "mysql://db.example.com/licenses"}

	_, _, err := ResolveStoreCredentials(zap.NewNop(), func(k string) string { return env[k] }, nil, credsPath(t))
	if err == nil {
		t.Fatal("expected error for unsupported scheme, got nil")
	}
}

func TestResolveOverridePersistsForFutureRuns(t *testing.T) {
	path := credsPath(t)
	override := &StoreCredentials{URL: "postgresql://db.example.com/licenses", Key: "flag-secret"}

	creds, source, err := ResolveStoreCredentials(zap.NewNop(), noEnv, override, path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if source != SourceOverride {
		t.Errorf("source = %q, want %q", source, SourceOverride)
	}
	if creds.Key != "flag-secret" {
		t.Errorf("creds = %+v, want override values", creds)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("credentials file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credentials file mode = %o, want 600", perm)
	}

	// Second run without the override picks up the persisted file.
	creds, source, err = ResolveStoreCredentials(zap.NewNop(), noEnv, nil, path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if source != SourcePersisted {
		t.Errorf("second run source = %q, want %q", source, SourcePersisted)
	}
	if creds.URL != override.URL || creds.Key != override.Key {
		t.Errorf("persisted creds = %+v, want %+v", creds, *override)
	}
}

func TestResolveInvalidOverrideIsSkipped(t *testing.T) {
	path := credsPath(t)
	override := &StoreCredentials{URL: "not a url at all://"}

	_, _, err := ResolveStoreCredentials(zap.NewNop(), noEnv, override, path)
	if !errors.Is(err, ierr.ErrStoreNotConfigured) {
		t.Errorf("err = %v, want ErrStoreNotConfigured", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("invalid override must not be persisted")
	}
}

func TestResolveNothingConfigured(t *testing.T) {
	_, _, err := ResolveStoreCredentials(zap.NewNop(), noEnv, nil, credsPath(t))
	if !errors.Is(err, ierr.ErrStoreNotConfigured) {
		t.Errorf("err = %v, want ErrStoreNotConfigured", err)
	}
}

func TestResolveMalformedPersistedFile(t *testing.T) {
	path := credsPath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, err := ResolveStoreCredentials(zap.NewNop(), noEnv, nil, path)
	if err == nil || errors.Is(err, ierr.ErrStoreNotConfigured) {
		t.Errorf("err = %v, want a parse failure distinct from not-configured", err)
	}
}

func TestStoreCredentialsValidate(t *testing.T) {
	cases := []struct {
		url     string
		wantErr bool
	}{
		{"postgres://db.example.com/licenses", false},
		{"postgresql://db.example.com:5432/licenses", false},
		{"mysql://db.example.com/licenses", true},
		{"postgres:///licenses", true},
		{"", true},
	}

	for _, tc := range cases {
		err := StoreCredentials{URL: tc.url}.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("Validate(%q): err = %v, wantErr %v", tc.url, err, tc.wantErr)
		}
	}
}

package secrets_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Strob0t/TaskFlow/internal/secrets"
)

func TestNewVaultInitialLoad(t *testing.T) {
	v, err := secrets.NewVault(secrets.Static(map[string]string{"KEY_A": "val_a", "EMPTY": ""}))
	if err != nil {
		t.Fatalf("NewVault failed: %v", err)
	}
	if got := v.Get("KEY_A"); got != "val_a" {
		t.Fatalf("expected 'val_a', got %q", got)
	}
	if got := v.Get("MISSING"); got != "" {
		t.Fatalf("expected empty string for missing key, got %q", got)
	}
}

func TestNewVaultLoaderError(t *testing.T) {
	_, err := secrets.NewVault(func() (map[string]string, error) {
		return nil, errors.New("permission denied")
	})
	if err == nil {
		t.Fatal("expected error from failing loader")
	}
}

func TestVaultReloadErrorPreservesValues(t *testing.T) {
	calls := 0
	v, _ := secrets.NewVault(func() (map[string]string, error) {
		calls++
		if calls == 1 {
			return map[string]string{"KEY": "original"}, nil
		}
		return nil, errors.New("file missing")
	})

	if err := v.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := v.Get("KEY"); got != "original" {
		t.Fatalf("expected 'original' after failed reload, got %q", got)
	}
}

func TestVaultGetterSeesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master_key")
	if err := os.WriteFile(path, []byte("sk-old\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	v, err := secrets.NewVault(secrets.FileLoader(map[string]string{"LLM": path}))
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	get := v.Getter("LLM")
	if got := get(); got != "sk-old" {
		t.Fatalf("initial key = %q, want trimmed sk-old", got)
	}

	if err := os.WriteFile(path, []byte("sk-new"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := v.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := get(); got != "sk-new" {
		t.Fatalf("key after reload = %q, want sk-new", got)
	}
}

func TestFileLoaderSkipsEmptyPath(t *testing.T) {
	vals, err := secrets.FileLoader(map[string]string{"LLM": ""})()
	if err != nil {
		t.Fatalf("FileLoader: %v", err)
	}
	if len(vals) != 0 {
		t.Fatalf("expected no values, got %v", vals)
	}
}

func TestChainLaterWins(t *testing.T) {
	vals, err := secrets.Chain(
		secrets.Static(map[string]string{"A": "1", "B": "2"}),
		secrets.Static(map[string]string{"B": "3", "A": ""}),
	)()
	if err != nil {
		t.Fatal(err)
	}
	if vals["A"] != "1" || vals["B"] != "3" {
		t.Fatalf("unexpected merge %v", vals)
	}
}

func TestChainPropagatesError(t *testing.T) {
	_, err := secrets.Chain(
		secrets.Static(map[string]string{"A": "1"}),
		secrets.FileLoader(map[string]string{"B": filepath.Join(t.TempDir(), "absent")}),
	)()
	if err == nil {
		t.Fatal("expected error for unreadable file")
	}
}

func TestVaultConcurrentAccess(t *testing.T) {
	v, _ := secrets.NewVault(secrets.Static(map[string]string{"K": "V"}))

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = v.Get("K")
		}()
		go func() {
			defer wg.Done()
			_ = v.Reload()
		}()
	}
	wg.Wait()
}

func TestVaultRedacted(t *testing.T) {
	v, _ := secrets.NewVault(secrets.Static(map[string]string{
		"API_KEY": "sk-abcdef123456",
		"SHORT":   "ab",
	}))

	if got := v.Redacted("API_KEY"); got != "sk****" {
		t.Errorf("expected 'sk****', got %q", got)
	}
	if got := v.Redacted("SHORT"); got != "****" {
		t.Errorf("expected '****', got %q", got)
	}
	if got := v.Redacted("MISSING"); got != "" {
		t.Errorf("expected empty string for missing key, got %q", got)
	}
}

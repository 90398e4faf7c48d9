package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "agtool.json")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoadMissingFile(t *testing.T) {
	s := tempStore(t)
	if got := s.Get("default_username", "fallback"); got != "fallback" {
		t.Fatalf("Get on empty store = %q", got)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	s := tempStore(t)
	if err := s.Set("default_username", "alice"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get("default_username", ""); got != "alice" {
		t.Fatalf("Get = %q", got)
	}

	// A fresh load must see the persisted value.
	s2, err := Load(s.Path())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := s2.Get("default_username", ""); got != "alice" {
		t.Fatalf("reloaded Get = %q", got)
	}
}

func TestSetEqualValueDoesNotPersist(t *testing.T) {
	s := tempStore(t)
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Remove the file; an equal-value Set must not recreate it.
	if err := os.Remove(s.Path()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set again: %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Fatalf("equal-value Set rewrote the file")
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	s := tempStore(t)
	if err := s.Remove("nope"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(s.Path()); !os.IsNotExist(err) {
		t.Fatalf("Remove of absent key created the file")
	}
}

func TestRemovePersists(t *testing.T) {
	s := tempStore(t)
	if err := s.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Remove("k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	s2, err := Load(s.Path())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := s2.Get("k", "gone"); got != "gone" {
		t.Fatalf("removed key still present: %q", got)
	}
}

func TestUserScopedKeys(t *testing.T) {
	s := tempStore(t)
	if err := s.SetDefaultUsername("alice"); err != nil {
		t.Fatalf("SetDefaultUsername: %v", err)
	}
	if err := s.SetToken("", "tok123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	// Empty username resolves through the default; the key is prefixed.
	if got := s.Get("alice_token", ""); got != "tok123" {
		t.Fatalf("alice_token = %q", got)
	}
	if got := s.Token("alice"); got != "tok123" {
		t.Fatalf("Token(alice) = %q", got)
	}
	if got := s.Token("bob"); got != "" {
		t.Fatalf("Token(bob) = %q, want empty", got)
	}
}

func TestExpiresSurvivesReload(t *testing.T) {
	s := tempStore(t)
	if err := s.SetDefaultUsername("alice"); err != nil {
		t.Fatalf("SetDefaultUsername: %v", err)
	}
	if err := s.SetExpires("alice", 1234567890123); err != nil {
		t.Fatalf("SetExpires: %v", err)
	}
	s2, err := Load(s.Path())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := s2.Expires("alice"); got != 1234567890123 {
		t.Fatalf("Expires = %d", got)
	}
}

func TestFileIsIndentedSortedJSON(t *testing.T) {
	s := tempStore(t)
	if err := s.Set("zeta", "1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("alpha", "2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	b, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("file is not JSON: %v", err)
	}
	text := string(b)
	if !strings.Contains(text, "    \"alpha\"") {
		t.Fatalf("file not indented:\n%s", text)
	}
	if strings.Index(text, "alpha") > strings.Index(text, "zeta") {
		t.Fatalf("keys not sorted:\n%s", text)
	}
}

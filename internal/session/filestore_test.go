package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir())
}

func TestFileStore_SaveAndRead(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	want := Session{
		Token: "tok-abc",
		User:  User{ID: "u1", FullName: "Sam Reyes", Email: "sam@example.com", Role: "DONOR"},
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got == nil {
		t.Fatal("Read() returned nil after Save")
	}
	if *got != want {
		t.Errorf("Read() = %+v, want %+v", *got, want)
	}
}

func TestFileStore_ReadEmpty(t *testing.T) {
	store := newTestFileStore(t)

	got, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != nil {
		t.Errorf("Read() on empty store = %+v, want nil", got)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	first := Session{Token: "tok-1", User: User{ID: "u1", Role: "DONOR"}}
	second := Session{Token: "tok-2", User: User{ID: "u2", Role: "ADMIN"}}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save(first) error: %v", err)
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save(second) error: %v", err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got.Token != "tok-2" || got.User.ID != "u2" {
		t.Errorf("Read() after re-login = %+v, want second session", got)
	}
}

func TestFileStore_Clear(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Session{Token: "tok", User: User{ID: "u1"}}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != nil {
		t.Errorf("Read() after Clear = %+v, want nil", got)
	}

	// Clearing again must not error.
	if err := store.Clear(ctx); err != nil {
		t.Errorf("Clear() on empty store error: %v", err)
	}
}

func TestFileStore_UserWithoutTokenNotTrusted(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	// A record with a user but no token can be left behind by a partial
	// write or manual edit. It must read as "no session".
	raw := []byte(`{"token":"","user":{"id":"u9","role":"ADMIN"}}`)
	if err := os.WriteFile(filepath.Join(dir, sessionFileName), raw, 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	got, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != nil {
		t.Errorf("Read() of tokenless record = %+v, want nil", got)
	}
}

func TestFileStore_CorruptFileReadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	if err := os.WriteFile(filepath.Join(dir, sessionFileName), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	got, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != nil {
		t.Errorf("Read() of corrupt file = %+v, want nil", got)
	}
}

func TestFileStore_Permissions(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	if err := store.Save(context.Background(), Session{Token: "tok"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, sessionFileName))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}
}

// unsignedToken builds a JWT-shaped token with the given exp for Valid tests.
func unsignedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(map[string]int64{"exp": exp.Unix()})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return fmt.Sprintf("%s.%s.c2ln", header, base64.RawURLEncoding.EncodeToString(payload))
}

func TestValid(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemStore()

	if Valid(ctx, store, now) {
		t.Error("empty store should not be valid")
	}

	if err := store.Save(ctx, Session{Token: unsignedToken(t, now.Add(time.Hour)), User: User{ID: "u1"}}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !Valid(ctx, store, now) {
		t.Error("store with future-expiry token should be valid")
	}

	if err := store.Save(ctx, Session{Token: unsignedToken(t, now.Add(-time.Minute)), User: User{ID: "u1"}}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if Valid(ctx, store, now) {
		t.Error("store with expired token should not be valid")
	}

	if err := store.Save(ctx, Session{Token: "garbage", User: User{ID: "u1"}}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if Valid(ctx, store, now) {
		t.Error("store with undecodable token should not be valid")
	}
}

package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return NewRedisStoreWithClient(client, "test")
}

func TestRedisStore_SaveAndRead(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	want := Session{
		Token: "tok-xyz",
		User:  User{ID: "u7", FullName: "Priya Nair", Email: "priya@example.com", Role: "ADMIN"},
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

func TestRedisStore_ReadMissing(t *testing.T) {
	store := newTestRedisStore(t)

	got, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got != nil {
		t.Errorf("Read() of missing key = %+v, want nil", got)
	}
}

func TestRedisStore_SaveOverwritesStaleFields(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Session{Token: "t1", User: User{ID: "u1", Email: "a@example.com", Role: "DONOR"}}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	// Re-login as a different user: no field from the first session may
	// survive the overwrite.
	if err := store.Save(ctx, Session{Token: "t2", User: User{ID: "u2", Role: "ADMIN"}}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got.Token != "t2" || got.User.ID != "u2" || got.User.Email != "" {
		t.Errorf("Read() after overwrite = %+v, want clean second session", got)
	}
}

func TestRedisStore_Clear(t *testing.T) {
	store := newTestRedisStore(t)
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
}

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lifelink/donorlink/internal/session"
)

// newTestClient builds a Client against the given handler with an
// in-memory session store pre-loaded with a token.
func newTestClient(t *testing.T, handler http.Handler, onUnauthorized func()) (*Client, *session.MemStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := session.NewMemStore()
	if err := store.Save(context.Background(), session.Session{
		Token: "tok-test",
		User:  session.User{ID: "u1", FullName: "Sam Reyes", Role: "DONOR"},
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.Store = store
	cfg.OnUnauthorized = onUnauthorized
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return client, store
}

func TestBearerHeaderAttached(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})
	client, _ := newTestClient(t, handler, nil)

	if _, err := client.Resources(context.Background()); err != nil {
		t.Fatalf("Resources() error: %v", err)
	}
	if gotAuth != "Bearer tok-test" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-test")
	}
}

func TestNoTokenNoHeader(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, hasAuth = r.Header.Get("Authorization"), r.Header.Get("Authorization") != ""
		w.Write([]byte(`[]`))
	})
	client, store := newTestClient(t, handler, nil)
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	if _, err := client.DonationCenters(context.Background()); err != nil {
		t.Fatalf("DonationCenters() error: %v", err)
	}
	if hasAuth {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestUnauthorizedClearsSessionOnce(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	var callbacks int32
	client, store := newTestClient(t, handler, func() {
		atomic.AddInt32(&callbacks, 1)
	})

	_, err := client.Resources(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	sess, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if sess != nil {
		t.Errorf("session not cleared after 401: %+v", sess)
	}
	if n := atomic.LoadInt32(&callbacks); n != 1 {
		t.Errorf("OnUnauthorized fired %d times, want 1", n)
	}

	// A second 401 on the already-cleared session must not re-fire.
	if _, err := client.Resources(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if n := atomic.LoadInt32(&callbacks); n != 1 {
		t.Errorf("OnUnauthorized fired %d times after second 401, want 1", n)
	}
}

func TestConcurrentUnauthorizedSingleClear(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	})
	var callbacks int32
	client, _ := newTestClient(t, handler, func() {
		atomic.AddInt32(&callbacks, 1)
	})

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Resources(context.Background())
		}(i)
	}
	close(release)
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("worker %d: expected ErrUnauthorized, got %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&callbacks); n != 1 {
		t.Errorf("OnUnauthorized fired %d times under concurrent 401s, want 1", n)
	}
}

func TestBackendErrorSurfacedVerbatim(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Selected slot is no longer available"}`))
	})
	client, store := newTestClient(t, handler, nil)

	_, err := client.BookAppointment(context.Background(), BookingRequest{UserID: "u1", CenterID: 3})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Errorf("status = %d, want %d", apiErr.Status, http.StatusConflict)
	}
	if apiErr.Message != "Selected slot is no longer available" {
		t.Errorf("message = %q, want backend message verbatim", apiErr.Message)
	}

	// Business errors never clear the session.
	sess, _ := store.Read(context.Background())
	if sess == nil {
		t.Error("session cleared by a non-401 error")
	}
}

func TestLoginPersistsSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not carry a bearer header")
		}
		w.Write([]byte(`{"token":"tok-new","user":{"id":"u2","fullName":"Priya Nair","email":"priya@example.com","role":"ADMIN"}}`))
	})
	client, store := newTestClient(t, handler, nil)

	sess, err := client.Login(context.Background(), "priya@example.com", "secret")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if sess.Token != "tok-new" || sess.User.Role != "ADMIN" {
		t.Errorf("Login() returned %+v", sess)
	}

	stored, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if stored == nil || stored.Token != "tok-new" || stored.User.ID != "u2" {
		t.Errorf("stored session = %+v, want the login result", stored)
	}
}

func TestLoginBadCredentialsDoesNotClear(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid email or password"}`))
	})
	var callbacks int32
	client, store := newTestClient(t, handler, func() { atomic.AddInt32(&callbacks, 1) })

	_, err := client.Login(context.Background(), "x@example.com", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError for bad credentials, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("bad credentials should not map to ErrUnauthorized")
	}
	if n := atomic.LoadInt32(&callbacks); n != 0 {
		t.Errorf("OnUnauthorized fired %d times on a login failure, want 0", n)
	}
	if sess, _ := store.Read(context.Background()); sess == nil {
		t.Error("existing session cleared by a failed login attempt")
	}
}

func TestValidateRefreshesProfile(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"valid":true,"user":{"id":"u1","fullName":"Sam A. Reyes","email":"sam@example.com","role":"ADMIN"}}`))
	})
	client, store := newTestClient(t, handler, nil)

	user, err := client.Validate(context.Background())
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if user.Role != "ADMIN" {
		t.Errorf("role = %q, want server role", user.Role)
	}

	stored, _ := store.Read(context.Background())
	if stored.User.FullName != "Sam A. Reyes" {
		t.Errorf("stored profile not refreshed: %+v", stored.User)
	}
}

func TestValidateInvalidClearsSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"valid":false}`))
	})
	client, store := newTestClient(t, handler, nil)

	_, err := client.Validate(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if sess, _ := store.Read(context.Background()); sess != nil {
		t.Errorf("session kept after invalid validate: %+v", sess)
	}
}

func TestLogoutClearsEvenOnBackendFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client, store := newTestClient(t, handler, nil)

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if sess, _ := store.Read(context.Background()); sess != nil {
		t.Errorf("session kept after logout: %+v", sess)
	}
}

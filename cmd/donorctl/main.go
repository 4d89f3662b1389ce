// Package main is donorctl, the terminal client for the LifeLink blood
// donation platform. It drives the backend REST API and the realtime
// chat broker, persisting the signed-in session between invocations.
//
// Usage:
//
//	donorctl <command> [options]
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/lifelink/donorlink/internal/api"
	"github.com/lifelink/donorlink/internal/guard"
	"github.com/lifelink/donorlink/internal/metrics"
	"github.com/lifelink/donorlink/internal/session"
)

// appConfig holds donorctl settings, overridable via environment.
type appConfig struct {
	apiURL         string
	brokerURL      string
	sessionBackend string // file | redis
	redisAddr      string
	metricsAddr    string // empty disables the metrics listener
}

func defaultAppConfig() appConfig {
	return appConfig{
		apiURL:         "http://localhost:8081/api",
		brokerURL:      "nats://localhost:4222",
		sessionBackend: "file",
		redisAddr:      "localhost:6379",
	}
}

// commandRoutes maps guarded commands onto the navigation routes whose
// access rules they share. Commands not listed are public.
var commandRoutes = map[string]string{
	"appointments": "/appointments",
	"book":         "/book-appointment",
	"reschedule":   "/appointments",
	"cancel":       "/appointments",
	"slots":        "/book-appointment",
	"badges":       "/donor/dashboard",
	"feedback":     "/feedback/pending",
	"chat":         "/chatwithcenter",
	"profile":      "/profile",
	"eligibility":  "/eligibility",
	"users":        "/admin/dashboard",
	"reports":      "/admin/dashboard",
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg := defaultAppConfig()
	if v := os.Getenv("LIFELINK_API_URL"); v != "" {
		cfg.apiURL = v
	}
	if v := os.Getenv("LIFELINK_BROKER_URL"); v != "" {
		cfg.brokerURL = v
	}
	if v := os.Getenv("LIFELINK_SESSION_BACKEND"); v != "" {
		cfg.sessionBackend = v
	}
	if v := os.Getenv("LIFELINK_REDIS_ADDR"); v != "" {
		cfg.redisAddr = v
	}
	if v := os.Getenv("LIFELINK_METRICS_ADDR"); v != "" {
		cfg.metricsAddr = v
	}

	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	defer closeStore()

	apiCfg := api.DefaultConfig()
	apiCfg.BaseURL = cfg.apiURL
	apiCfg.Store = store
	apiCfg.OnUnauthorized = func() {
		fmt.Fprintln(os.Stderr, "Session expired. Run 'donorctl login' to sign in again.")
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		log.Fatalf("api client: %v", err)
	}

	if cfg.metricsAddr != "" {
		go serveMetrics(cfg.metricsAddr)
	}

	ctx := context.Background()

	// Commands tied to a guarded route go through the same access check
	// navigation does.
	if route, guarded := commandRoutes[command]; guarded {
		decision := guard.New(store, client).CheckRoute(ctx, route)
		if decision.State == guard.StateDenied {
			switch decision.Redirect {
			case guard.RedirectUnauthorized:
				log.Fatalf("access denied: your role does not allow %q", command)
			default:
				log.Fatalf("access denied: sign in with 'donorctl login' first")
			}
		}
	}

	switch command {
	case "login":
		runLogin(ctx, client, args)
	case "register":
		runRegister(ctx, client, args)
	case "logout":
		runLogout(ctx, client)
	case "whoami":
		runWhoami(ctx, store)
	case "validate":
		runValidate(ctx, client)
	case "centers":
		runCenters(ctx, client, args)
	case "camps":
		runCamps(ctx, client)
	case "stock":
		runStock(ctx, client)
	case "urgent":
		runUrgent(ctx, client)
	case "resources":
		runResources(ctx, client)
	case "badges":
		runBadges(ctx, client, store)
	case "appointments":
		runAppointments(ctx, client, store, args)
	case "book":
		runBook(ctx, client, store, args)
	case "reschedule":
		runReschedule(ctx, client, store, args)
	case "cancel":
		runCancel(ctx, client, args)
	case "slots":
		runSlots(ctx, client, args)
	case "profile":
		runProfile(ctx, client, store)
	case "eligibility":
		runEligibility(ctx, client, args)
	case "feedback":
		runFeedback(ctx, client, args)
	case "users":
		runUsers(ctx, client, args)
	case "reports":
		runReports(ctx, client)
	case "chat":
		runChat(ctx, cfg, client, store)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// newSessionStore builds the configured session backend. The returned
// close function is a no-op for the file store.
func newSessionStore(cfg appConfig) (session.Store, func(), error) {
	switch cfg.sessionBackend {
	case "file":
		dir, err := session.ResolveDataDir()
		if err != nil {
			return nil, nil, err
		}
		return session.NewFileStore(dir), func() {}, nil
	case "redis":
		name, _ := os.Hostname()
		if name == "" {
			name = "donorctl"
		}
		store, err := session.NewRedisStore(cfg.redisAddr, name)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("[session] close error: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q (want file or redis)", cfg.sessionBackend)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Printf("[metrics] listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[metrics] listener error: %v", err)
	}
}

func printUsage() {
	fmt.Println("Usage: donorctl <command> [options]")
	fmt.Println()
	fmt.Println("Account:")
	fmt.Println("  login         Sign in and persist the session")
	fmt.Println("  register      Create a donor account")
	fmt.Println("  logout        Sign out and clear the stored session")
	fmt.Println("  whoami        Show the locally stored identity")
	fmt.Println("  validate      Re-confirm the session with the backend")
	fmt.Println()
	fmt.Println("Donation:")
	fmt.Println("  centers       List donation centers (optional city/pincode query)")
	fmt.Println("  camps         List donation camps")
	fmt.Println("  slots         Show free slots for a center and date")
	fmt.Println("  book          Book an appointment")
	fmt.Println("  appointments  List your appointments")
	fmt.Println("  reschedule    Move an appointment to a new slot")
	fmt.Println("  cancel        Cancel an appointment")
	fmt.Println("  eligibility   Run the eligibility self-check")
	fmt.Println("  feedback      Rate a completed appointment")
	fmt.Println()
	fmt.Println("Platform:")
	fmt.Println("  stock         Blood stock levels")
	fmt.Println("  urgent        Open urgent blood requests")
	fmt.Println("  resources     Educational resources")
	fmt.Println("  badges        Your donation badges and points")
	fmt.Println("  profile       Show your full profile")
	fmt.Println("  users         List or delete platform users (admin)")
	fmt.Println("  reports       Platform analytics: totals and monthly counts (admin)")
	fmt.Println("  chat          Interactive support chat")
	fmt.Println()
	fmt.Println("Run 'donorctl <command> -h' for command-specific options.")
}

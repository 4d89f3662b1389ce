package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lifelink/donorlink/internal/api"
	"github.com/lifelink/donorlink/internal/realtime"
	"github.com/lifelink/donorlink/internal/session"
)

// chatPollInterval is how often the render loop checks the surface for
// new messages and state changes.
const chatPollInterval = 250 * time.Millisecond

// runChat opens the interactive support chat. Persisted history is
// printed first, then inbound messages, typing indicators and presence
// changes as they arrive; each typed line is sent as one message.
func runChat(ctx context.Context, cfg appConfig, client *api.Client, store session.Store) {
	user := currentUser(ctx, store)

	history, err := client.ChatMessages(ctx, user.ID)
	if err != nil {
		log.Printf("[chat] history unavailable: %v", err)
	}
	for _, m := range history {
		fmt.Printf("%s %s: %s\n", shortTime(m.Timestamp), m.Username, m.Content)
	}

	rtCfg := realtime.DefaultConfig()
	rtCfg.URL = cfg.brokerURL

	manager := realtime.NewManager(rtCfg, user)
	surface, err := manager.Acquire()
	if err != nil {
		log.Fatalf("chat: %v", err)
	}
	defer surface.Close()
	surface.SetFocused(true)

	fmt.Printf("Connected to %s as %s. Type a message, or /quit to leave.\n", cfg.brokerURL, user.FullName)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go renderLoop(ctx, surface)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nLeaving chat.")
			return
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				fmt.Println("Leaving chat.")
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			surface.InputActivity()
			if err := surface.Send(text); err != nil {
				if errors.Is(err, realtime.ErrNotConnected) {
					fmt.Println("! not connected — message not sent")
					continue
				}
				log.Printf("[chat] send error: %v", err)
			}
		}
	}
}

// renderLoop polls the surface and prints whatever changed since the
// last tick.
func renderLoop(ctx context.Context, surface *realtime.Surface) {
	var (
		seen       int
		lastOnline int
		lastTyping string
	)

	ticker := time.NewTicker(chatPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		msgs := surface.Messages()
		for ; seen < len(msgs); seen++ {
			m := msgs[seen]
			status := ""
			if m.Status != "" {
				status = " [" + m.Status + "]"
			}
			fmt.Printf("%s %s: %s%s\n", shortTime(m.Timestamp), m.Username, m.Content, status)
		}

		if online := surface.Online(); online != lastOnline {
			fmt.Printf("* %d online\n", online)
			lastOnline = online
		}

		if typing := strings.Join(surface.TypingUsers(), ", "); typing != lastTyping {
			if typing != "" {
				fmt.Printf("* typing: %s\n", typing)
			}
			lastTyping = typing
		}
	}
}

// shortTime trims an ISO-8601 timestamp down to HH:MM for display.
func shortTime(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("15:04")
}

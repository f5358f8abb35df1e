// Wannameet CLI - terminal client for the wannameet matchmaking service.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Aryan42/wannameet/clients/go/wannameet"
	"github.com/Aryan42/wannameet/internal/geo"
)

func main() {
	baseURL := os.Getenv("WANNAMEET_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	appID := os.Getenv("APP_ID")
	if appID == "" {
		fmt.Fprintln(os.Stderr, "Error: APP_ID is required")
		os.Exit(1)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	// Access is gated on being physically near campus.
	ok, err := geo.CampusGate().Admit(geo.EnvSource{})
	if err != nil {
		fmt.Println("Geolocation permission denied or unavailable.")
		os.Exit(1)
	}
	if !ok {
		fmt.Println("Access Denied: You are not on the VIT campus.")
		os.Exit(1)
	}

	// Ephemeral per-process identity, matching the web client's scheme.
	userID := strconv.Itoa(rand.Intn(1_000_000))

	orch := wannameet.NewOrchestrator(wannameet.Config{
		UserID:    userID,
		Directory: wannameet.NewClient(baseURL),
		Media:     wannameet.NewMediaTransport(baseURL, appID, logger),
		Messaging: wannameet.NewMessagingTransport(baseURL, appID, logger),
		Logger:    logger,
	})
	defer orch.Stop()

	go printEvents(orch)

	fmt.Println("Welcome to Wannameet. /next for a new partner, /quit to leave.")
	orch.Start()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit":
			return
		case line == "/next":
			orch.Next()
		default:
			orch.Send(line)
		}
	}
}

func printEvents(orch *wannameet.Orchestrator) {
	for ev := range orch.Events() {
		switch e := ev.(type) {
		case wannameet.StateChanged:
			if e.Room != nil {
				fmt.Printf("-- %s (room %s)\n", e.State, e.Room.ID)
			} else {
				fmt.Printf("-- %s\n", e.State)
			}
		case wannameet.LogUpdated:
			msgs := orch.Messages()
			if len(msgs) == 0 {
				continue
			}
			last := msgs[len(msgs)-1]
			fmt.Printf("%s - %s\n", last.Attribution(orch.UserID()), last.Text)
		case wannameet.PeerMediaChanged:
			if e.Media.VideoFrom != "" {
				fmt.Println("-- peer video available")
			}
		case wannameet.SessionError:
			fmt.Printf("-- error: %v\n", e.Err)
		}
	}
}

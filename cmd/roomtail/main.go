// roomtail is a terminal client for one room: it opens a live session,
// tails the merged view as it changes, and accepts chat and review
// commands on stdin. Useful for poking at a running engine without a UI.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"proofroom.app/engine/common/id"
	"proofroom.app/engine/core/config"
	"proofroom.app/engine/core/db"
	"proofroom.app/engine/internal/model"
	"proofroom.app/engine/internal/realtime"
	"proofroom.app/engine/internal/service"
	"proofroom.app/engine/internal/store"
)

func main() {
	ctx := context.Background()

	// Load .env file (ignore error if not found)
	_ = godotenv.Load()

	roomID := os.Getenv("ROOM_ID")
	clientID := os.Getenv("CLIENT_ID")
	if roomID == "" || clientID == "" {
		fmt.Fprintln(os.Stderr, "ROOM_ID and CLIENT_ID are required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := id.Init(2); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize id generator: %v\n", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	channel, err := setupChannel(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up realtime channel: %v\n", err)
		os.Exit(1)
	}
	defer channel.Close()

	stores := store.NewStores(database)
	rooms := service.NewRoomService(stores.Rooms(), stores.Messages(), channel, cfg.Review, nil)

	sess, err := rooms.Open(ctx, roomID, clientID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open room: %v\n", err)
		os.Exit(1)
	}
	defer sess.Close()

	fmt.Printf("Joined %s as %s (%s). Commands: send <text> | request <summary> | approve [note] | changes <note> | feedback <note> | read | quit\n",
		sess.Room().Title, clientID, sess.Role())
	render(sess.Current())

	go func() {
		for snap := range sess.Snapshots() {
			render(snap)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")

		var err error
		switch cmd {
		case "quit", "exit":
			return
		case "send":
			_, err = sess.SendMessage(ctx, model.MessageTypeText, rest, nil)
		case "request":
			_, err = sess.SubmitReviewRequest(ctx, rest, nil)
		case "approve":
			_, err = sess.SubmitReviewResponse(ctx, model.ReviewActionApprove, rest)
		case "changes":
			_, err = sess.SubmitReviewResponse(ctx, model.ReviewActionRequestChanges, rest)
		case "feedback":
			_, err = sess.SubmitReviewResponse(ctx, model.ReviewActionFeedback, rest)
		case "read":
			err = sess.MarkRead(ctx)
		default:
			fmt.Printf("unknown command %q\n", cmd)
			continue
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func setupChannel(ctx context.Context, cfg config.Config) (realtime.Channel, error) {
	if cfg.Realtime.Backend == config.BackendNATS {
		return realtime.NewNATSChannel(cfg.NATS.URL)
	}
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return realtime.NewRedisChannel(client), nil
}

func render(snap service.Snapshot) {
	fmt.Printf("---- %d messages ----\n", len(snap.Messages))
	for _, m := range snap.Messages {
		marker := " "
		if m.Pending {
			marker = "~"
		}
		line := fmt.Sprintf("%s [%s] %s: %s", marker, m.CreatedAt.Format("15:04:05"), m.SenderID, m.Body)
		if m.Type == model.MessageTypeReviewRequest {
			if out, ok := snap.Outcomes[reviewKey(m)]; ok {
				line += fmt.Sprintf("  (review: %s)", describeOutcome(out))
			}
		}
		fmt.Println(line)
	}
}

func reviewKey(m model.Message) string {
	if m.ID != "" {
		return m.ID
	}
	return m.LocalID
}

func describeOutcome(out model.ReviewOutcome) string {
	if !out.Responded {
		return "awaiting response"
	}
	if out.TimedOut {
		return "timed out"
	}
	return string(out.Action)
}

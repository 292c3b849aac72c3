package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/planfold/plotd/internal/events"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream diagram pipeline events",
	GroupID: "diagrams",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")

		natsURL := os.Getenv("PLOTD_NATS_URL")
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		if natsURL == "" {
			return fmt.Errorf("no NATS URL configured (set PLOTD_NATS_URL or add one with 'plot remote add --nats')")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return watchNATS(ctx, natsURL, topic)
	},
}

// watchNATS subscribes to pipeline events and prints each one as it arrives.
func watchNATS(ctx context.Context, natsURL, topic string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			printEvent(msg)
		}
	}
}

// printEvent prints a received event payload, compacting it on one line
// unless --json was given.
func printEvent(payload []byte) {
	if jsonOutput {
		fmt.Println(string(payload))
		return
	}
	var evt map[string]any
	if err := json.Unmarshal(payload, &evt); err != nil {
		fmt.Println(string(payload))
		return
	}
	ts := time.Now().Format("15:04:05")
	if id, ok := evt["request_id"].(string); ok {
		fmt.Printf("[%s] %s %v\n", ts, id, compactFields(evt, "request_id"))
		return
	}
	fmt.Printf("[%s] %v\n", ts, evt)
}

// compactFields renders the event fields minus the ones already shown.
func compactFields(evt map[string]any, skip ...string) string {
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}
	out := ""
	for k, v := range evt {
		if skipSet[k] {
			continue
		}
		if out != "" {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", k, v)
	}
	return out
}

func init() {
	watchCmd.Flags().String("topic", "diagrams.>", "topic pattern to subscribe to")
}

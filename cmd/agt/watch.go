package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/agritag/internal/events"
	"github.com/alfredjeanlab/agritag/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream feature changes published on NATS",
	GroupID: "system",
	// Watching needs only the event bus.
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats-url")
		if natsURL == "" {
			return fmt.Errorf("no NATS URL (set AGRI_NATS_URL or --nats-url)")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

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

		return watchEvents(ctx, sub, os.Stdout)
	},
}

// watchEvents prints every event from sub until ctx is done or the
// subscription ends.
func watchEvents(ctx context.Context, sub events.Subscriber, w io.Writer) error {
	ch, cancel, err := sub.Subscribe(events.AllTopics)
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
			fmt.Fprintln(w, describeEvent(time.Now(), msg.Topic, msg.Data))
		}
	}
}

// describeEvent formats one event line.
func describeEvent(at time.Time, topic string, data []byte) string {
	prefix := ui.RenderMuted(at.Format("15:04:05")) + " " + ui.RenderAccent(topic)
	if jsonOutput {
		return prefix + " " + string(data)
	}

	var ev struct {
		Feature *struct {
			ID         string `json:"id"`
			Properties struct {
				Name string `json:"name"`
			} `json:"properties"`
		} `json:"feature"`
		Changes    []string `json:"changes"`
		FeatureID  string   `json:"feature_id"`
		FeatureIDs []string `json:"feature_ids"`
		Skipped    int      `json:"skipped"`
		Count      int      `json:"count"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return prefix + " " + ui.RenderWarn("unreadable payload")
	}

	switch topic {
	case events.TopicFeatureCreated:
		if ev.Feature != nil {
			return fmt.Sprintf("%s %s %q", prefix, ev.Feature.ID, ev.Feature.Properties.Name)
		}
	case events.TopicFeatureUpdated:
		if ev.Feature != nil {
			return fmt.Sprintf("%s %s %v", prefix, ev.Feature.ID, ev.Changes)
		}
	case events.TopicFeatureDeleted:
		return fmt.Sprintf("%s %s", prefix, ev.FeatureID)
	case events.TopicStoreImported:
		return fmt.Sprintf("%s %d imported, %d skipped", prefix, len(ev.FeatureIDs), ev.Skipped)
	case events.TopicStoreHydrated:
		return fmt.Sprintf("%s %d features loaded", prefix, ev.Count)
	}
	return prefix
}

func init() {
	watchCmd.Flags().String("nats-url", os.Getenv("AGRI_NATS_URL"), "NATS server URL")
}

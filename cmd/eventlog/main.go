package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"prd-builder-be/internal/config"
	"prd-builder-be/pkg/events"
	pktNats "prd-builder-be/pkg/nats"

	"github.com/fatih/color"
)

// eventlog tails document lifecycle events from JetStream.
func main() {
	durable := flag.String("durable", "prd-eventlog", "durable consumer name")
	subject := flag.String("subject", pktNats.SubjectPrefix+">", "subject filter")
	flag.Parse()

	cfg := config.Load()
	if cfg.Events.NatsURL == "" {
		log.Fatal("Error: NATS_URL is not set")
	}

	sub, err := pktNats.NewSubscriber(cfg.Events.NatsURL)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	colors := map[string]*color.Color{
		events.PrdDocumentCreated: color.New(color.FgGreen),
		events.PrdDocumentUpdated: color.New(color.FgYellow),
		events.PrdDocumentDeleted: color.New(color.FgRed),
	}
	fallback := color.New(color.FgWhite)

	err = sub.Subscribe(ctx, *subject, *durable, func(ctx context.Context, event events.Event) error {
		c, ok := colors[event.EventType()]
		if !ok {
			c = fallback
		}
		payload := event.Payload()
		c.Printf("%s %-22s document=%v user=%v\n",
			event.Timestamp().Format("2006-01-02 15:04:05.000"),
			event.EventType(),
			payload["document_id"],
			payload["user_id"],
		)
		return nil
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	color.New(color.FgCyan, color.Bold).Printf("Listening on %s (durable %s)\n", *subject, *durable)
	<-ctx.Done()
}

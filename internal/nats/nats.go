package nats

import (
	"context"
	"log/slog"

	libnats "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"yallapost/internal/config"
)

const defaultBucket = "yalla"

// NATS owns the connection backing the KV token store.
type NATS struct {
	Logger *slog.Logger
	Config *config.Config

	JS jetstream.JetStream
	KV jetstream.KeyValue
}

func (n *NATS) Init(ctx context.Context) error {
	n.Logger = n.Logger.With("component", "nats.NATS")

	nc, err := libnats.Connect(n.Config.NATSURL, libnats.Name("yalla"))
	if err != nil {
		return err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return err
	}

	n.JS = js

	if n.Config.NATSInit {
		if err := n.initNATS(ctx); err != nil {
			nc.Close()
			return err
		}
	}

	kv, err := js.KeyValue(ctx, n.bucket())
	if err != nil {
		nc.Close()
		return err
	}
	n.KV = kv

	return nil
}

func (n *NATS) HealthCheck(context.Context) error {
	_, err := n.JS.Conn().RTT()
	return err
}

func (n *NATS) Shutdown(context.Context) error {
	return n.JS.Conn().Drain()
}

func (n *NATS) bucket() string {
	if n.Config.NATSBucket == "" {
		return defaultBucket
	}
	return n.Config.NATSBucket
}

func (n *NATS) initNATS(ctx context.Context) error {
	n.Logger.Info("Initializing NATS")

	_, err := n.JS.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      n.bucket(),
		Description: "yalla session tokens",
		History:     1,
	})
	if err != nil {
		return err
	}
	n.Logger.Info("KeyValue created or updated", "name", n.bucket())

	return nil
}

// Package mongo connects to the MongoDB document store.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Connect creates a client for uri and verifies it with a ping, retrying until timeout.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		err = client.Ping(pingCtx, readpref.Primary())
		if err == nil {
			slog.Info("MongoDB connection successful")
			return client, nil
		}
		if pingCtx.Err() != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo ping failed after %s: %w", timeout, err)
		}
		slog.Warn("MongoDB ping failed, retrying", "error", err)
		select {
		case <-pingCtx.Done():
		case <-time.After(3 * time.Second):
		}
	}
}

// Ping checks that the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// ConnectMongo connects to MongoDB and returns the configured database
func ConnectMongo(ctx context.Context, logger *zerolog.Logger, cfg MongoConfig) (*mongo.Client, *mongo.Database, error) {
	var err error

	for i := 0; i < connectMaxRetries; i++ {
		var client *mongo.Client
		client, err = mongo.Connect(options.Client().ApplyURI(cfg.URI).SetServerSelectionTimeout(10 * time.Second))
		if err == nil {
			if err = client.Ping(ctx, readpref.Primary()); err == nil {
				logger.Info().Str("database", cfg.Database).Msg("connected to MongoDB")
				return client, client.Database(cfg.Database), nil
			}
			_ = client.Disconnect(ctx)
		}
		logger.Warn().Err(err).
			Int("attempt", i+1).
			Int("max_attempts", connectMaxRetries).
			Dur("retry_in", connectRetryInterval).
			Msg("failed to connect to MongoDB")
		if werr := waitRetry(ctx, connectRetryInterval); werr != nil {
			return nil, nil, werr
		}
	}
	return nil, nil, fmt.Errorf("unable to connect to MongoDB after %d attempts: %w", connectMaxRetries, err)
}

// Package mongo connects the application to its document store.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	ErrFailedToConnect   = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed = errors.New("mongo healthcheck failed")
)

// Config represents the configuration for the document store connection.
type Config struct {
	ConnectionURL   string        `env:"MONGODB_URL,required"`
	Database        string        `env:"MONGODB_DATABASE" envDefault:"readlingo"`
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"`
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`
}

// Connect establishes a client connection, retrying per the config, and
// returns the configured database handle.
func Connect(ctx context.Context, cfg Config) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.ConnectionURL).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetRetryWrites(true).
		SetRetryReads(true)

	for range max(cfg.RetryAttempts, 1) {
		client, err := mongo.Connect(opts)
		if err == nil {
			if err := client.Ping(ctx, nil); err == nil {
				return client.Database(cfg.Database), nil
			}
			_ = client.Disconnect(ctx)
		}
		time.Sleep(cfg.RetryInterval)
	}

	return nil, ErrFailedToConnect
}

// Healthcheck returns a probe function verifying store connectivity with a
// lightweight ping.
func Healthcheck(db *mongo.Database) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := db.Client().Ping(ctx, nil); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/microsoft/go-mssqldb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/BartekS5/xfer/pkg/logger"
)

// DefaultTimeout bounds connection setup and the initial ping.
const DefaultTimeout = 10 * time.Second

// WithPassword returns connString with its password replaced by secret.
// An empty secret leaves the string untouched.
func WithPassword(connString, secret string) (string, error) {
	if secret == "" {
		return connString, nil
	}
	u, err := url.Parse(connString)
	if err != nil {
		return "", fmt.Errorf("parse connection url: %w", err)
	}
	user := ""
	if u.User != nil {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, secret)
	return u.String(), nil
}

// Redact hides the password of a connection URL for logging.
func Redact(connString string) string {
	u, err := url.Parse(connString)
	if err != nil {
		return "<unparseable url>"
	}
	return u.Redacted()
}

func ConnectSQL(ctx context.Context, connString string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("error opening SQL database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, orDefault(timeout))
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to SQL database (ping failed): %w", err)
	}

	logger.Infof("Connected to SQL Server at %s", Redact(connString))
	return db, nil
}

func ConnectPostgres(ctx context.Context, connString string, timeout time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	// One writer, one reader at most.
	cfg.MaxConns = 2

	connCtx, cancel := context.WithTimeout(ctx, orDefault(timeout))
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating postgres pool: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to postgres (ping failed): %w", err)
	}

	logger.Infof("Connected to Postgres at %s", Redact(connString))
	return pool, nil
}

func ConnectMongo(ctx context.Context, connString string, timeout time.Duration) (*mongo.Client, error) {
	connCtx, cancel := context.WithTimeout(ctx, orDefault(timeout))
	defer cancel()

	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(connString))
	if err != nil {
		return nil, fmt.Errorf("error creating MongoDB client: %w", err)
	}

	if err := client.Ping(connCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)

		return nil, fmt.Errorf("error connecting to MongoDB (ping failed): %w", err)
	}

	logger.Infof("Connected to MongoDB at %s", Redact(connString))
	return client, nil
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

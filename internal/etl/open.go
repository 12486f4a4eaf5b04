package etl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/BartekS5/xfer/pkg/database"
)

// OpenOptions carries the connection settings shared by all backends.
type OpenOptions struct {
	ConnectTimeout time.Duration
	HTTPTimeout    time.Duration
	Log            *slog.Logger
}

// OpenStore connects to the endpoint at rawURL, picking the backend from
// the URL scheme. secret, when non-empty, is the endpoint's credential: the
// API key for http(s) endpoints and the password for database URLs.
func OpenStore(ctx context.Context, rawURL, secret string, opts OpenOptions) (Store, error) {
	scheme := schemeOf(rawURL)
	switch scheme {
	case "http", "https":
		return NewRESTStore(rawURL, secret, opts.HTTPTimeout), nil

	case "postgres", "postgresql":
		dsn, err := database.WithPassword(rawURL, secret)
		if err != nil {
			return nil, err
		}
		pool, err := database.ConnectPostgres(ctx, dsn, opts.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return &PostgresStore{Pool: pool}, nil

	case "sqlserver":
		dsn, err := database.WithPassword(rawURL, secret)
		if err != nil {
			return nil, err
		}
		db, err := database.ConnectSQL(ctx, dsn, opts.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return &SQLServerStore{DB: db}, nil

	case "mongodb", "mongodb+srv":
		uri, err := database.WithPassword(rawURL, secret)
		if err != nil {
			return nil, err
		}
		cs, err := connstring.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parse mongodb url: %w", err)
		}
		if cs.Database == "" {
			return nil, fmt.Errorf("mongodb url %s must name a database", database.Redact(rawURL))
		}
		client, err := database.ConnectMongo(ctx, uri, opts.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		return &MongoStore{Client: client, Database: cs.Database, Log: opts.Log}, nil

	case "file":
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		return &FileStore{Path: u.Path}, nil

	case "":
		return &FileStore{Path: rawURL}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
}

func schemeOf(rawURL string) string {
	i := strings.Index(rawURL, "://")
	if i < 0 {
		return ""
	}
	return strings.ToLower(rawURL[:i])
}

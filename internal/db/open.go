package db

import (
	"context"
	"strings"
)

// Open picks a Sink by URL scheme:
//   - postgres://, postgresql://: Postgres via pgx
//   - libsql://, http(s)://, ws(s)://: Turso via libsql
//   - anything else: a local SQLite file (file: URIs or plain paths)
func Open(ctx context.Context, url, authToken string) (Sink, error) {
	switch {
	case hasScheme(url, "postgres", "postgresql"):
		return NewPGStore(ctx, url)
	case hasScheme(url, "libsql", "http", "https", "ws", "wss"):
		return NewLibSQLStore(ctx, url, authToken)
	default:
		return NewSQLiteStore(ctx, strings.TrimPrefix(url, "sqlite://"))
	}
}

func hasScheme(url string, schemes ...string) bool {
	for _, scheme := range schemes {
		if strings.HasPrefix(url, scheme+"://") {
			return true
		}
	}
	return false
}

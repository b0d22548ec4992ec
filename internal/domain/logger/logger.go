package logger

import (
	"log/slog"
	"time"
)

// Log types understood by the console handler.
const (
	TypeDB      = "db"
	TypeCatalog = "catalog"
)

// QueryLogger times one outbound call, either a database statement or a
// catalog API request, and logs its outcome.
type QueryLogger struct {
	Type      string
	Operation string
	Query     string
	Args      []any
	StartTime time.Time
}

func NewQueryLogger(operation, query string, args ...any) *QueryLogger {
	return newQueryLogger(TypeDB, operation, query, args)
}

// NewRequestLogger times a request against the remote card catalog.
func NewRequestLogger(operation, query string, args ...any) *QueryLogger {
	return newQueryLogger(TypeCatalog, operation, query, args)
}

func newQueryLogger(typ, operation, query string, args []any) *QueryLogger {
	return &QueryLogger{
		Type:      typ,
		Operation: operation,
		Query:     query,
		Args:      args,
		StartTime: time.Now(),
	}
}

// Log records the call. Successful calls log at debug level so busy refresh
// cycles stay quiet.
func (l *QueryLogger) Log(err error, rowsAffected int64) {
	duration := time.Since(l.StartTime)

	if err != nil {
		slog.Error("Query failed",
			slog.String("type", l.Type),
			slog.String("operation", l.Operation),
			slog.String("query", l.Query),
			slog.Any("args", l.Args),
			slog.Duration("took", duration),
			slog.Any("error", err),
		)
		return
	}

	slog.Debug("Query executed",
		slog.String("type", l.Type),
		slog.String("operation", l.Operation),
		slog.String("query", l.Query),
		slog.Any("args", l.Args),
		slog.Duration("took", duration),
		slog.Int64("affected_rows", rowsAffected),
	)
}

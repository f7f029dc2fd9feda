// Package logger provides structured logging for the application.
//
// It configures log/slog with a JSON handler and carries request-scoped
// loggers through context.Context so that stores and services log with the
// attributes of the request or scheduler pass that invoked them.
package logger

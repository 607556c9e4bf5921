package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Health status values
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus describes the outcome of a connectivity check.
type HealthStatus struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time"`
	OpenConns    int           `json:"open_connections"`
	Errors       []string      `json:"errors,omitempty"`
	CheckedAt    time.Time     `json:"checked_at"`
}

func checkHealth(ctx context.Context, m *Manager) *HealthStatus {
	status := &HealthStatus{
		Status:    StatusHealthy,
		CheckedAt: time.Now(),
	}

	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := m.db.PingContext(pingCtx); err != nil {
		status.Status = StatusUnhealthy
		status.Errors = append(status.Errors, fmt.Sprintf("ping failed: %v", err))
	}

	status.ResponseTime = time.Since(start)
	status.OpenConns = m.db.Stats().OpenConnections
	return status
}

// WaitUntilHealthy blocks until the database answers a health check, retrying
// with exponential backoff up to the context deadline.
func WaitUntilHealthy(ctx context.Context, m *Manager, logger *zap.Logger) error {
	backoff := time.Second
	maxBackoff := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database health: %w", ctx.Err())
		default:
		}

		status := m.Health(ctx)
		if status.Status == StatusHealthy {
			logger.Info("Database is healthy",
				zap.Duration("response_time", status.ResponseTime))
			return nil
		}

		logger.Debug("Database not healthy yet, retrying",
			zap.Strings("errors", status.Errors),
			zap.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database health: %w", ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

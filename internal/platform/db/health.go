package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the connection pool snapshot exposed on the health endpoint.
// EmptyAcquireCount counts acquires that had to wait for a free connection;
// a climbing value means the pool is undersized for the clinic's load.
type PoolStats struct {
	TotalConns        int32 `json:"total_conns"`
	IdleConns         int32 `json:"idle_conns"`
	AcquiredConns     int32 `json:"acquired_conns"`
	MaxConns          int32 `json:"max_conns"`
	EmptyAcquireCount int64 `json:"empty_acquire_count"`
}

// GetPoolStats snapshots the pool counters.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:        stat.TotalConns(),
		IdleConns:         stat.IdleConns(),
		AcquiredConns:     stat.AcquiredConns(),
		MaxConns:          stat.MaxConns(),
		EmptyAcquireCount: stat.EmptyAcquireCount(),
	}
}

// healthResponse is the payload of GET /health/db.
type healthResponse struct {
	Database string     `json:"database"`
	PingMs   int64      `json:"ping_ms"`
	Error    string     `json:"error,omitempty"`
	Pool     *PoolStats `json:"pool"`
}

// HealthHandler reports whether the clinic database answers a ping and how
// the pool is doing.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
		defer cancel()

		start := time.Now()
		err := pool.Ping(ctx)
		resp := &healthResponse{
			Database: "up",
			PingMs:   time.Since(start).Milliseconds(),
			Pool:     GetPoolStats(pool),
		}
		if err != nil {
			resp.Database = "down"
			resp.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

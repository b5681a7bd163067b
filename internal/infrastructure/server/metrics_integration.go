package server

import (
	"context"
	"database/sql"
	"time"

	"github.com/yuzvak/storefront-checkout/internal/infrastructure/monitoring"
)

const dbStatsInterval = 15 * time.Second

// SetupMetrics starts pool statistics collection when a database is present
// and returns a dedicated metrics listener when addr is set. /metrics is also
// served by the main router, so a nil server is a valid result.
func SetupMetrics(ctx context.Context, addr string, db *sql.DB) *monitoring.MetricsServer {
	if db != nil {
		monitoring.NewDBMetricsCollector(db).StartCollecting(ctx, dbStatsInterval)
	}

	if addr == "" {
		return nil
	}
	return monitoring.NewMetricsServer(addr)
}

package sheets

import (
	"context"

	"spendlens/internal/core"
)

// Ports for outbound adapters.
type (
	// ForecastAuditWriter appends a persisted forecast point to the
	// external audit log.
	ForecastAuditWriter interface {
		Append(ctx context.Context, p core.ForecastPoint) (rowRef string, err error)
	}
)

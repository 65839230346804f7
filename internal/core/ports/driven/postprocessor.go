package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// UnitProcessor transforms text units after chunking.
// UnitProcessors are chained in a pipeline (e.g., whitespace normalisation, filtering).
type UnitProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process returns the transformed units. It may drop units but must keep their order.
	Process(ctx context.Context, units []domain.TextUnit) ([]domain.TextUnit, error)
}

// UnitPipeline chains multiple UnitProcessors.
type UnitPipeline interface {
	// Process runs the units through all processors in order.
	Process(ctx context.Context, units []domain.TextUnit) ([]domain.TextUnit, error)
}

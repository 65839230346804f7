// Package postprocessors provides text unit processing after chunking.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.UnitPipeline = (*Pipeline)(nil)

// Pipeline chains multiple UnitProcessors and runs them in order.
type Pipeline struct {
	processors []driven.UnitProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.UnitProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the units through all processors in order.
// An empty pipeline returns its input unchanged.
func (p *Pipeline) Process(ctx context.Context, units []domain.TextUnit) ([]domain.TextUnit, error) {
	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		units, err = processor.Process(ctx, units)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return units, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.UnitProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

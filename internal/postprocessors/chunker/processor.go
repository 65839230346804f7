// Package chunker turns extracted file segments into text units.
//
// PDF files yield one unit per non-blank page. Word documents yield one
// unit per group of non-empty paragraphs, GroupSize paragraphs at a time.
package chunker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultGroupSize is the number of Word paragraphs per unit.
const DefaultGroupSize = domain.DefaultGroupSize

// paragraphJoin separates grouped paragraphs inside one unit.
const paragraphJoin = "\n"

var log = logger.With("chunker")

// Processor splits files into text units using registered extractors.
type Processor struct {
	extractors driven.ExtractorRegistry
	groupSize  int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithGroupSize sets the number of paragraphs grouped into one unit.
func WithGroupSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.groupSize = size
		}
	}
}

// New creates a new chunker over the given extractor registry.
func New(extractors driven.ExtractorRegistry, opts ...Option) *Processor {
	p := &Processor{
		extractors: extractors,
		groupSize:  DefaultGroupSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// GroupSize returns the configured paragraph group size.
func (p *Processor) GroupSize() int {
	return p.groupSize
}

// Chunk reads filePath as fileType and returns its text units.
// Unit sources are set to filePath; callers re-tag them with a display name.
func (p *Processor) Chunk(ctx context.Context, filePath, fileType string) ([]domain.TextUnit, error) {
	format, err := domain.ParseFileType(fileType)
	if err != nil {
		return nil, fmt.Errorf("chunk %q: %w", fileType, err)
	}

	extractor, ok := p.extractors.Extractor(format)
	if !ok {
		return nil, fmt.Errorf("chunk %q: %w", fileType, domain.ErrUnsupportedFormat)
	}

	segments, err := extractor.Extract(ctx, filePath)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	var units []domain.TextUnit
	switch format {
	case domain.DocTypePDF:
		units = p.pageUnits(filePath, segments)
	default:
		units = p.groupedUnits(filePath, format, segments)
	}

	if len(units) == 0 {
		return nil, fmt.Errorf("%w: no text found in %s", domain.ErrExtractionFailed, filePath)
	}

	log.Debug("%s: %d segments -> %d units", filePath, len(segments), len(units))
	return units, nil
}

// pageUnits emits one unit per page with text, keeping the page number.
func (p *Processor) pageUnits(source string, segments []driven.Segment) []domain.TextUnit {
	units := make([]domain.TextUnit, 0, len(segments))
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			log.Warn("page %d of %s is empty, skipping", seg.Locator, source)
			continue
		}
		units = append(units, domain.TextUnit{
			Content: seg.Text,
			Metadata: domain.UnitMetadata{
				Source:  source,
				Locator: domain.PageLocator(seg.Locator),
				DocType: domain.DocTypePDF,
			},
		})
	}
	return units
}

// groupedUnits buffers non-empty paragraphs and flushes every groupSize of
// them as one unit. A trailing partial group is flushed as well.
func (p *Processor) groupedUnits(source string, format domain.DocType, segments []driven.Segment) []domain.TextUnit {
	var (
		units  []domain.TextUnit
		buffer = make([]string, 0, p.groupSize)
	)

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		units = append(units, domain.TextUnit{
			Content: strings.Join(buffer, paragraphJoin),
			Metadata: domain.UnitMetadata{
				Source:  source,
				DocType: format,
			},
		})
		buffer = buffer[:0]
	}

	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		buffer = append(buffer, seg.Text)
		if len(buffer) >= p.groupSize {
			flush()
		}
	}
	flush()

	return units
}

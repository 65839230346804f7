// Package cleanup provides text unit processors that tidy chunker output.
package cleanup

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

var (
	_ driven.UnitProcessor = (*Whitespace)(nil)
	_ driven.UnitProcessor = (*DropEmpty)(nil)
)

// Whitespace trims trailing spaces from every line and collapses runs of
// blank lines to one. pdftotext -layout output is padded heavily.
type Whitespace struct{}

// NewWhitespace creates a whitespace normaliser.
func NewWhitespace() *Whitespace {
	return &Whitespace{}
}

// Name returns the processor name.
func (w *Whitespace) Name() string {
	return "normalise_whitespace"
}

// Process rewrites unit contents. Metadata is carried over unchanged.
func (w *Whitespace) Process(_ context.Context, units []domain.TextUnit) ([]domain.TextUnit, error) {
	out := make([]domain.TextUnit, len(units))
	for i, u := range units {
		u.Content = normalise(u.Content)
		out[i] = u
	}
	return out, nil
}

func normalise(s string) string {
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		kept = append(kept, line)
	}
	return strings.Trim(strings.Join(kept, "\n"), "\n")
}

// DropEmpty removes units whose content is too short to be useful.
type DropEmpty struct {
	minChars int
}

// Option configures DropEmpty.
type Option func(*DropEmpty)

// WithMinChars sets the minimum number of non-space characters a unit needs.
func WithMinChars(n int) Option {
	return func(d *DropEmpty) {
		if n > 0 {
			d.minChars = n
		}
	}
}

// NewDropEmpty creates a filter that drops blank units.
func NewDropEmpty(opts ...Option) *DropEmpty {
	d := &DropEmpty{minChars: 1}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the processor name.
func (d *DropEmpty) Name() string {
	return "drop_empty"
}

// Process returns the units that meet the minimum length, in order.
func (d *DropEmpty) Process(_ context.Context, units []domain.TextUnit) ([]domain.TextUnit, error) {
	out := make([]domain.TextUnit, 0, len(units))
	for _, u := range units {
		if utf8.RuneCountInString(strings.Join(strings.Fields(u.Content), "")) < d.minChars {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

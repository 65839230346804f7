package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// mockProcessor is a test processor that returns predefined units.
type mockProcessor struct {
	name  string
	units []domain.TextUnit
	err   error
}

func (m *mockProcessor) Name() string {
	return m.name
}

func (m *mockProcessor) Process(_ context.Context, units []domain.TextUnit) ([]domain.TextUnit, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.units != nil {
		return m.units, nil
	}
	return units, nil
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.Len() != 0 {
		t.Errorf("expected 0 processors, got %d", p.Len())
	}
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockProcessor{name: "test"})

	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
	if names := p.Names(); len(names) != 1 || names[0] != "test" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestPipeline_Process_EmptyPipeline(t *testing.T) {
	p := NewPipeline()
	input := []domain.TextUnit{{Content: "unchanged"}}

	units, err := p.Process(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 1 || units[0].Content != "unchanged" {
		t.Errorf("expected input returned unchanged, got %v", units)
	}
}

func TestPipeline_Process_MultipleProcessors(t *testing.T) {
	second := []domain.TextUnit{{Content: "modified"}, {Content: "added"}}

	p := NewPipeline(
		&mockProcessor{name: "first", units: []domain.TextUnit{{Content: "first"}}},
		&mockProcessor{name: "second", units: second},
	)

	units, err := p.Process(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != len(second) {
		t.Errorf("expected %d units, got %d", len(second), len(units))
	}
}

func TestPipeline_Process_ProcessorError(t *testing.T) {
	expectedErr := errors.New("processor failed")

	p := NewPipeline(&mockProcessor{name: "failing", err: expectedErr})

	_, err := p.Process(context.Background(), []domain.TextUnit{{Content: "x"}})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}

func TestPipeline_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(&mockProcessor{name: "passthrough"})
	if _, err := p.Process(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuildPipeline_Defaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := BuildPipeline(r, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names := p.Names(); len(names) != 1 || names[0] != StageDropEmpty {
		t.Errorf("expected default stages, got %v", names)
	}

	units, err := p.Process(context.Background(), []domain.TextUnit{{Content: " "}, {Content: "kept"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 1 || units[0].Content != "kept" {
		t.Errorf("expected blank unit dropped, got %v", units)
	}
}

func TestBuildPipeline_ConfiguredStages(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := BuildPipeline(r,
		[]string{StageNormaliseWhitespace, StageDropEmpty},
		map[string]map[string]any{StageDropEmpty: {"min_chars": int64(4)}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	units, err := p.Process(context.Background(), []domain.TextUnit{
		{Content: "abc   \n\n\n\n"},
		{Content: "long enough   \n"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(units) != 1 || units[0].Content != "long enough" {
		t.Errorf("unexpected units: %v", units)
	}
}

func TestBuildPipeline_UnknownStage(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	if _, err := BuildPipeline(r, []string{"stemmer"}, nil); err == nil {
		t.Error("expected error for unknown stage")
	}
}

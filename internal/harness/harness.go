package harness

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/roach88/siblingmerge/internal/clean"
	"github.com/roach88/siblingmerge/internal/coalesce"
	"github.com/roach88/siblingmerge/internal/ir"
	"github.com/roach88/siblingmerge/internal/strategy"
)

// Harness executes one scenario.
type Harness struct {
	coalescer *coalesce.Coalescer
	logger    *slog.Logger
}

// Run executes a scenario and evaluates its assertions.
//
// Execution flow:
// 1. Build the strategy table (built-ins plus scenario overrides)
// 2. Load store records into an arena used as the reference resolver
// 3. Run the operation on a private copy of the input
// 4. Evaluate assertions against the output
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}

	input, err := ir.FromGo(scenario.Input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}

	result := NewResult()
	result.input = input
	result.before = ir.Clone(input)

	output, err := h.execute(scenario.Operation, input)
	if err != nil {
		return nil, err
	}
	result.Output = output

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h.coalescer.IdentityField()) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	table, err := scenarioTable(scenario)
	if err != nil {
		return nil, err
	}

	opts := []coalesce.Option{
		coalesce.WithTable(table),
		coalesce.WithIdentityField(scenario.IdentityField),
		coalesce.WithLogger(logger),
	}

	if len(scenario.Store) > 0 {
		field := scenario.IdentityField
		if field == "" {
			field = ir.DefaultIdentityField
		}
		arena := coalesce.NewArena(field)
		for i, raw := range scenario.Store {
			rec, err := toRecord(raw)
			if err != nil {
				return nil, fmt.Errorf("store[%d]: %w", i, err)
			}
			if err := arena.Add(rec); err != nil {
				return nil, fmt.Errorf("store[%d]: %w", i, err)
			}
		}
		opts = append(opts, coalesce.WithResolver(arena))
	}

	return &Harness{
		coalescer: coalesce.New(opts...),
		logger:    logger,
	}, nil
}

// scenarioTable overlays the scenario's strategy overrides on the
// built-in table.
func scenarioTable(scenario *Scenario) (*strategy.Table, error) {
	table := strategy.Default()
	if scenario.Strategies.Kind == 0 {
		return table, nil
	}
	data, err := yaml.Marshal(&scenario.Strategies)
	if err != nil {
		return nil, fmt.Errorf("strategies: %w", err)
	}
	if err := strategy.ApplyYAML(data, table); err != nil {
		return nil, fmt.Errorf("strategies: %w", err)
	}
	return table, nil
}

func (h *Harness) execute(op string, input ir.Value) (ir.Value, error) {
	switch op {
	case OpClean:
		return clean.New(h.coalescer.IdentityField()).Clean(input), nil

	case OpCoalesce:
		rec, ok := input.(ir.Object)
		if !ok {
			return nil, fmt.Errorf("coalesce input must be a record, got %s", ir.KindOf(input))
		}
		return h.coalescer.Coalesce(rec), nil

	case OpCombine:
		list, ok := input.(ir.Array)
		if !ok {
			return nil, fmt.Errorf("combine input must be a list, got %s", ir.KindOf(input))
		}
		results := make([]coalesce.Result[int], 0, len(list))
		for i, elem := range list {
			rec, ok := elem.(ir.Object)
			if !ok {
				return nil, fmt.Errorf("input[%d] must be a record, got %s", i, ir.KindOf(elem))
			}
			results = append(results, coalesce.Result[int]{Entity: rec, Sidecar: i})
		}

		rows := coalesce.CoalesceMany(h.coalescer, results)
		out := make(ir.Array, len(rows))
		for i, row := range rows {
			obj := ir.Object{"entity": row.Entity}
			if row.MatchedEntities != nil {
				matched := make(ir.Array, len(row.MatchedEntities))
				for j, m := range row.MatchedEntities {
					matched[j] = m
				}
				obj["matchedEntities"] = matched
			}
			out[i] = obj
		}
		h.logger.Debug("combined", "inputs", len(list), "rows", len(rows))
		return out, nil

	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func toRecord(raw any) (ir.Object, error) {
	v, err := ir.FromGo(raw)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("expected a record, got %s", ir.KindOf(v))
	}
	return rec, nil
}

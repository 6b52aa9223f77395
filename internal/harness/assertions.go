package harness

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/siblingmerge/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes the output so a failure can be read without re-running.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Path     string   // Output path the assertion inspected
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Output   ir.Value // Full output for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Path != "" {
		fmt.Fprintf(&buf, " at %s", e.Path)
	}
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if out, err := ir.MarshalCanonical(e.Output); err == nil {
		fmt.Fprintf(&buf, "\nOutput:\n  %s\n", out)
	}
	return buf.String()
}

// lookupPath resolves a dotted path in which numeric segments index arrays.
// The empty path resolves to v itself.
func lookupPath(v ir.Value, path string) (ir.Value, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case ir.Object:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case ir.Array:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// render formats a value for failure messages.
func render(v ir.Value) string {
	if v == nil {
		return "<missing>"
	}
	out, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

func assertEquals(output ir.Value, a Assertion) error {
	want, err := ir.FromGo(a.Value)
	if err != nil {
		return fmt.Errorf("equals %s: bad expected value: %w", a.Path, err)
	}
	got, _ := lookupPath(output, a.Path)
	if got != nil && ir.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertEquals,
		Path:     a.Path,
		Expected: render(want),
		Actual:   render(got),
		Output:   output,
	}
}

func assertAbsent(output ir.Value, a Assertion) error {
	got, ok := lookupPath(output, a.Path)
	if !ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Path:     a.Path,
		Expected: "no value",
		Actual:   render(got),
		Output:   output,
	}
}

func assertLength(output ir.Value, a Assertion) error {
	got, ok := lookupPath(output, a.Path)
	n := -1
	if ok {
		switch val := got.(type) {
		case ir.Array:
			n = len(val)
		case ir.Object:
			n = len(val)
		}
	}
	if n == a.Count {
		return nil
	}
	actual := fmt.Sprintf("%d entries", n)
	if n < 0 {
		actual = render(got)
	}
	return &AssertionError{
		Type:     AssertLength,
		Path:     a.Path,
		Expected: fmt.Sprintf("%d entries", a.Count),
		Actual:   actual,
		Output:   output,
	}
}

func assertContains(output ir.Value, a Assertion) error {
	want, err := ir.FromGo(a.Value)
	if err != nil {
		return fmt.Errorf("contains %s: bad expected value: %w", a.Path, err)
	}
	got, _ := lookupPath(output, a.Path)
	if arr, ok := got.(ir.Array); ok && ir.Contains(arr, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertContains,
		Path:     a.Path,
		Expected: fmt.Sprintf("array containing %s", render(want)),
		Actual:   render(got),
		Output:   output,
	}
}

func assertIdentities(output ir.Value, a Assertion, identityField string) error {
	key := a.Key
	if key == "" {
		key = identityField
	}

	got, _ := lookupPath(output, a.Path)
	arr, ok := got.(ir.Array)
	if !ok {
		return &AssertionError{
			Type:     AssertIdentities,
			Path:     a.Path,
			Expected: fmt.Sprintf("array with %s values %v", key, a.IDs),
			Actual:   render(got),
			Output:   output,
		}
	}

	ids := make([]string, len(arr))
	for i, elem := range arr {
		ids[i], _ = ir.LookupString(elem, key)
	}
	if slices.Equal(ids, a.IDs) {
		return nil
	}
	return &AssertionError{
		Type:     AssertIdentities,
		Path:     a.Path,
		Expected: fmt.Sprintf("%v", a.IDs),
		Actual:   fmt.Sprintf("%v", ids),
		Output:   output,
	}
}

func assertInputUnchanged(result *Result) error {
	if ir.Equal(result.input, result.before) {
		return nil
	}
	return &AssertionError{
		Type:     AssertInputUnchanged,
		Expected: render(result.before),
		Actual:   render(result.input),
		Output:   result.Output,
	}
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion, identityField string) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEquals:
			err = assertEquals(result.Output, a)
		case AssertAbsent:
			err = assertAbsent(result.Output, a)
		case AssertLength:
			err = assertLength(result.Output, a)
		case AssertContains:
			err = assertContains(result.Output, a)
		case AssertIdentities:
			err = assertIdentities(result.Output, a, identityField)
		case AssertInputUnchanged:
			err = assertInputUnchanged(result)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

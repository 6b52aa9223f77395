package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/siblingmerge/internal/coalesce"
	"github.com/roach88/siblingmerge/internal/ir"
	"github.com/roach88/siblingmerge/internal/strategy"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // Input file could not be read
	ErrCodeParseFailed = "E003" // Input is not valid JSON/YAML or has the wrong shape
	ErrCodeStrategies  = "E004" // Strategy table could not be loaded
	ErrCodeNotFound    = "E005" // Path or record not found
	ErrCodeDatabase    = "E006" // Store open/read/write error
)

// LoadError represents an error that occurred while loading CLI input.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// readValue decodes a JSON or YAML file into a value. The format follows
// the file extension; anything that is not .yaml/.yml is read as JSON.
func readValue(path string) (ir.Value, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
		}
		v, err := ir.FromGo(raw)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
		}
		return v, nil
	default:
		v, err := ir.UnmarshalValue(data)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
		}
		return v, nil
	}
}

// readRecord reads a file holding one record.
func readRecord(path string) (ir.Object, error) {
	v, err := readValue(path)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: expected a record object, got %s", path, ir.KindOf(v))}
	}
	return obj, nil
}

// readRecords reads a file holding one record or an array of records.
func readRecords(path string) ([]ir.Object, error) {
	v, err := readValue(path)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case ir.Object:
		return []ir.Object{val}, nil
	case ir.Array:
		out := make([]ir.Object, 0, len(val))
		for i, elem := range val {
			obj, ok := elem.(ir.Object)
			if !ok {
				return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: [%d] is %s, not a record", path, i, ir.KindOf(elem))}
			}
			out = append(out, obj)
		}
		return out, nil
	default:
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: expected record or array, got %s", path, ir.KindOf(v))}
	}
}

// loadTable returns the strategy table named by --strategies, or the
// built-in table.
func loadTable(opts *RootOptions) (*strategy.Table, error) {
	if opts.Strategies == "" {
		return strategy.Default(), nil
	}
	t, err := strategy.Load(opts.Strategies)
	if err != nil {
		return nil, convertConfigError(err)
	}
	return t, nil
}

// convertConfigError converts a strategy config error to a LoadError with
// position info.
func convertConfigError(err error) *LoadError {
	var cfgErr *strategy.ConfigError
	if errors.As(err, &cfgErr) {
		return &LoadError{
			Code:    ErrCodeStrategies,
			Message: fmt.Sprintf("%s: %s", cfgErr.Field, cfgErr.Message),
			Pos:     cfgErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeStrategies, Message: err.Error()}
}

// newCoalescer builds a coalescer from the global options.
func newCoalescer(opts *RootOptions, extra ...coalesce.Option) (*coalesce.Coalescer, error) {
	table, err := loadTable(opts)
	if err != nil {
		return nil, err
	}
	base := []coalesce.Option{
		coalesce.WithTable(table),
		coalesce.WithIdentityField(opts.IdentityField),
		coalesce.WithLogger(opts.Logger()),
	}
	return coalesce.New(append(base, extra...)...), nil
}

// loadErrorCode returns the LoadError code of err, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}

// fail reports err through the formatter and returns an ExitError.
func fail(f *OutputFormatter, code int, message string, err error) error {
	_ = f.Error(loadErrorCode(err), fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(code, message, err)
}

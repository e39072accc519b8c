package extract

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/gaugefetch/gaugefetch/internal/metric"
)

// Kind selects the extraction strategy. The set is closed and fixed at
// configuration time.
type Kind string

const (
	KindJQ      Kind = "jq"
	KindPattern Kind = "regex"
)

// Extractor is the compiled form of one rule's extraction instruction.
// Exactly one of the strategy fields is set, according to kind.
type Extractor struct {
	kind Kind
	jq   *jqExtractor
	re   *patternExtractor
}

// Compile validates and compiles instruction for the given kind. It runs once
// per rule at setup; an error here means the configuration is defective.
func Compile(kind Kind, instruction string) (*Extractor, error) {
	switch kind {
	case KindJQ:
		j, err := compileJQ(instruction)
		if err != nil {
			return nil, fmt.Errorf("compile jq query: %w", err)
		}
		return &Extractor{kind: kind, jq: j}, nil
	case KindPattern:
		p, err := compilePattern(instruction)
		if err != nil {
			return nil, fmt.Errorf("compile pattern: %w", err)
		}
		return &Extractor{kind: kind, re: p}, nil
	default:
		return nil, fmt.Errorf("unknown extractor kind %q", kind)
	}
}

// Kind returns the strategy this extractor was compiled for.
func (e *Extractor) Kind() Kind { return e.kind }

// Extract runs the compiled instruction against body and returns the metrics
// it yields, all named ruleName and stamped with at. An empty result with a
// nil error is valid: it means the response held nothing for this rule and
// the caller should keep the rule's previous results.
func (e *Extractor) Extract(ruleName, body string, at time.Time) ([]metric.Metric, error) {
	switch e.kind {
	case KindJQ:
		return e.jq.extract(ruleName, body, at)
	case KindPattern:
		return e.re.extract(ruleName, body, at)
	}
	return nil, fmt.Errorf("unknown extractor kind %q", e.kind)
}

// asFloat reports the numeric value of v. It covers every numeric shape the
// JSON decoder and the jq runtime produce.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	}
	return 0, false
}

// scalarString renders a scalar JSON value as a label value.
// Returns false for composite or null values.
func scalarString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	}
	if f, ok := asFloat(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64), true
	}
	return "", false
}

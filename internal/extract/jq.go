package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/itchyny/gojq"

	"github.com/gaugefetch/gaugefetch/internal/metric"
)

// jqExtractor evaluates a compiled jq query against the response parsed as a
// JSON document and maps the result onto metrics by shape:
//
//   - object: every numeric value becomes one metric labeled key=<object key>
//   - array:  every element object with a numeric "value" field becomes one
//     metric, its other scalar fields becoming labels
//   - number: exactly one unlabeled metric
//   - anything else: zero metrics, silently
type jqExtractor struct {
	code *gojq.Code
}

func compileJQ(instruction string) (*jqExtractor, error) {
	query, err := gojq.Parse(instruction)
	if err != nil {
		return nil, err
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, err
	}
	return &jqExtractor{code: code}, nil
}

func (j *jqExtractor) extract(ruleName, body string, at time.Time) ([]metric.Metric, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("parse response as json: %w", err)
	}

	iter := j.code.Run(doc)
	result, ok := iter.Next()
	if !ok {
		// Query produced no output at all. Same treatment as null.
		return nil, nil
	}
	if err, isErr := result.(error); isErr {
		return nil, fmt.Errorf("evaluate jq query: %w", err)
	}

	switch v := result.(type) {
	case map[string]interface{}:
		return fromObject(ruleName, v, at), nil
	case []interface{}:
		return fromArray(ruleName, v, at), nil
	}
	if num, ok := asFloat(result); ok {
		return []metric.Metric{metric.New(ruleName, num, at)}, nil
	}
	// Strings, booleans and null yield nothing. Not an error.
	return nil, nil
}

// fromObject emits one metric per numeric entry, labeled with the entry's key.
// Keys are visited in sorted order so repeated scrapes of identical data
// render identically.
func fromObject(ruleName string, obj map[string]interface{}, at time.Time) []metric.Metric {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var ms []metric.Metric
	for _, k := range keys {
		num, ok := asFloat(obj[k])
		if !ok {
			continue
		}
		ms = append(ms, metric.New(ruleName, num, at).WithLabel("key", k))
	}
	return ms
}

// fromArray emits one metric per element object holding a numeric "value"
// field. The element's other scalar fields become labels; elements without a
// numeric "value" are skipped.
func fromArray(ruleName string, arr []interface{}, at time.Time) []metric.Metric {
	var ms []metric.Metric
	for _, elem := range arr {
		obj, ok := elem.(map[string]interface{})
		if !ok {
			continue
		}
		num, ok := asFloat(obj["value"])
		if !ok {
			continue
		}

		m := metric.New(ruleName, num, at)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "value" {
				continue
			}
			if s, ok := scalarString(obj[k]); ok {
				m = m.WithLabel(k, s)
			}
		}
		ms = append(ms, m)
	}
	return ms
}

package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gaugefetch/gaugefetch/internal/metric"
)

// patternExtractor matches a compiled regular expression against the raw
// response text. Group handling:
//
//   - a group named "value" carries the metric value; every other named group
//     that matched becomes a label
//   - no named groups: group 1 if present and matched, else the full match
//   - named groups but none called "value": the concatenation of all
//     capturing groups in index order
//
// A pattern that does not match the response, or a captured text that does
// not parse as a float, is a rule-level error.
type patternExtractor struct {
	re       *regexp.Regexp
	names    []string // index-aligned subexpression names, "" for unnamed
	valueIdx int      // index of the group named "value", or -1
	named    bool     // whether any named group exists
}

func compilePattern(instruction string) (*patternExtractor, error) {
	re, err := regexp.Compile(instruction)
	if err != nil {
		return nil, err
	}
	p := &patternExtractor{
		re:       re,
		names:    re.SubexpNames(),
		valueIdx: re.SubexpIndex("value"),
	}
	for _, n := range p.names {
		if n != "" {
			p.named = true
			break
		}
	}
	return p, nil
}

func (p *patternExtractor) extract(ruleName, body string, at time.Time) ([]metric.Metric, error) {
	loc := p.re.FindStringSubmatchIndex(body)
	if loc == nil {
		return nil, fmt.Errorf("pattern matched nothing")
	}
	group := func(i int) (string, bool) {
		if 2*i+1 >= len(loc) || loc[2*i] < 0 {
			return "", false
		}
		return body[loc[2*i]:loc[2*i+1]], true
	}

	switch {
	case p.valueIdx >= 0:
		text, ok := group(p.valueIdx)
		if !ok {
			return nil, fmt.Errorf("group %q did not participate in the match", "value")
		}
		num, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("group %q: parse %q as float: %w", "value", text, err)
		}
		m := metric.New(ruleName, num, at)
		for i, name := range p.names {
			if name == "" || i == p.valueIdx {
				continue
			}
			if text, ok := group(i); ok {
				m = m.WithLabel(name, text)
			}
		}
		return []metric.Metric{m}, nil

	case !p.named:
		// Unnamed groups only: prefer group 1, fall back to the full match.
		text, ok := group(1)
		if !ok {
			text, _ = group(0)
		}
		num, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as float: %w", text, err)
		}
		return []metric.Metric{metric.New(ruleName, num, at)}, nil

	default:
		// Named groups, none of them "value": the number is spread across
		// groups. Concatenate them in index order and parse the whole.
		var b strings.Builder
		for i := 1; i < p.re.NumSubexp()+1; i++ {
			if text, ok := group(i); ok {
				b.WriteString(text)
			}
		}
		num, err := strconv.ParseFloat(b.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("parse concatenated groups %q as float: %w", b.String(), err)
		}
		return []metric.Metric{metric.New(ruleName, num, at)}, nil
	}
}

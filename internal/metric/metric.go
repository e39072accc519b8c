package metric

import (
	"sort"
	"strings"
	"time"
)

// Metric is one named, labeled, timestamped numeric observation.
// Value and TimestampMs are not part of the metric's identity.
type Metric struct {
	Name        string
	Value       float64
	TimestampMs int64
	Labels      map[string]string
}

// New creates a Metric stamped with at (milliseconds since epoch) and no labels.
func New(name string, value float64, at time.Time) Metric {
	return Metric{
		Name:        name,
		Value:       value,
		TimestampMs: at.UnixMilli(),
	}
}

// WithLabel returns the metric with an added label. Both key and value are
// passed through Sanitize so the exposition output stays valid regardless of
// what the upstream response contained.
func (m Metric) WithLabel(key, value string) Metric {
	if m.Labels == nil {
		m.Labels = make(map[string]string)
	}
	m.Labels[Sanitize(key)] = Sanitize(value)
	return m
}

// Key returns the metric's identity: the name plus the full label set.
// Two metrics with equal keys are the same series.
func (m Metric) Key() string {
	if len(m.Labels) == 0 {
		return m.Name
	}
	var b strings.Builder
	b.WriteString(m.Name)
	for _, k := range m.LabelNames() {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte(0)
		b.WriteString(m.Labels[k])
	}
	return b.String()
}

// LabelNames returns the metric's label keys in sorted order.
func (m Metric) LabelNames() []string {
	names := make([]string, 0, len(m.Labels))
	for k := range m.Labels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Sanitize maps s onto the exposition-safe alphabet: ASCII alphanumerics,
// '_' and '.' pass through, every other byte becomes '_'. Idempotent.
func Sanitize(s string) string {
	out := []byte(s)
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '.':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

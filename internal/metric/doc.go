// Package metric defines the Metric value type and the in-memory Store that
// holds the most recent extraction results. A metric's identity is its name
// plus its full label set; storing a metric whose identity already exists
// replaces the stored value and timestamp rather than adding a second series.
//
// The Store keeps one result slot per (target, rule) pair. A scrape commits a
// rule's results wholesale — a non-empty result set replaces the previous one,
// an empty result set leaves the previous one in place so that a temporarily
// silent rule keeps exposing its last good values.
package metric

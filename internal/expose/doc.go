// Package expose serializes the current store contents into the Prometheus
// text exposition format and serves it over HTTP. Rendering reads the store's
// slot snapshot, builds one gauge MetricFamily per non-empty rule slot and
// encodes it with expfmt, so value formatting and label escaping follow the
// reference implementation exactly. Rendering never fails; an empty store
// renders an empty document.
package expose

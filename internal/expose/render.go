package expose

import (
	"bytes"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/gaugefetch/gaugefetch/internal/metric"
)

// Render serializes the store's current contents. Slots appear in
// configuration order, each non-empty one preceded by its
// "# TYPE <rule> gauge" header; metrics keep their extraction emission order
// and label names are sorted. Two consecutive calls with no intervening
// scrape produce byte-identical output.
func Render(st *metric.Store) []byte {
	var buf bytes.Buffer
	for _, slot := range st.Snapshot() {
		if len(slot.Metrics) == 0 {
			continue
		}
		// expfmt only fails on writer errors; a bytes.Buffer has none.
		_, _ = expfmt.MetricFamilyToText(&buf, toFamily(slot))
	}
	return buf.Bytes()
}

// toFamily converts one rule slot into a gauge MetricFamily.
func toFamily(slot metric.Slot) *dto.MetricFamily {
	fam := &dto.MetricFamily{
		Name: proto.String(slot.Rule),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	for _, m := range slot.Metrics {
		pm := &dto.Metric{
			Gauge:       &dto.Gauge{Value: proto.Float64(m.Value)},
			TimestampMs: proto.Int64(m.TimestampMs),
		}
		for _, name := range m.LabelNames() {
			pm.Label = append(pm.Label, &dto.LabelPair{
				Name:  proto.String(name),
				Value: proto.String(m.Labels[name]),
			})
		}
		fam.Metric = append(fam.Metric, pm)
	}
	return fam
}

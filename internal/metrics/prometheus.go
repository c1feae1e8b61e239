package metrics

import (
	"io"
	"math"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// DurationMetric is the name of the exported latency histogram family. Each
// registered histogram becomes one series labelled route="<name>".
const DurationMetric = "foodatease_request_duration_seconds"

// PrometheusFormat is the content type written by WritePrometheus.
var PrometheusFormat = expfmt.NewFormat(expfmt.TypeTextPlain)

// WritePrometheus writes every registered histogram to w in the Prometheus
// text exposition format.
func (r *Registry) WritePrometheus(w io.Writer) error {
	mf := &dto.MetricFamily{
		Name: proto.String(DurationMetric),
		Help: proto.String("Request latency by route."),
		Type: dto.MetricType_HISTOGRAM.Enum(),
	}
	for _, name := range r.names() {
		h := r.get(name)
		if h == nil {
			continue
		}
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: []*dto.LabelPair{{
				Name:  proto.String("route"),
				Value: proto.String(name),
			}},
			Histogram: h.toProto(),
		})
	}
	if len(mf.Metric) == 0 {
		return nil
	}

	enc := expfmt.NewEncoder(w, PrometheusFormat)
	return enc.Encode(mf)
}

// toProto converts the histogram to cumulative buckets in seconds. The
// catch-all bucket is left out; the encoder derives +Inf from the count.
func (h *Histogram) toProto() *dto.Histogram {
	counts := h.loadCounts()
	var (
		total   uint64
		buckets []*dto.Bucket
	)
	for i, c := range counts {
		total += uint64(c)
		if h.bounds[i] == math.MaxInt64 {
			continue
		}
		buckets = append(buckets, &dto.Bucket{
			CumulativeCount: proto.Uint64(total),
			UpperBound:      proto.Float64(float64(h.bounds[i]) / 1e6),
		})
	}
	return &dto.Histogram{
		SampleCount: proto.Uint64(total),
		SampleSum:   proto.Float64(float64(h.sumMicros.Load()) / 1e6),
		Bucket:      buckets,
	}
}

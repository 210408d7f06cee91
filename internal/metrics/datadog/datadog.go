// Package datadog is a Datadog implementation of metrics.Backend.
//
// Metrics are buffered in memory and submitted on a ticker (default once a
// minute) and once more on Close, so a long run shows up as a time series
// and a short run still delivers its tail.
//
// Series submitted per flush:
//   - footballdw.stage.runs (count) tagged stage, status
//   - footballdw.records (count) tagged relation
//   - footballdw.stage.duration_seconds.{p50,p95,max,samples} (gauge) tagged
//     stage, status
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"footballdw/internal/metrics"
)

const (
	defaultJob        = "footballdw"
	defaultFlushEvery = time.Minute
	seriesPrefix      = "footballdw."
)

// Options configures the backend.
type Options struct {
	// JobName becomes the "job:<name>" tag. Defaults to "footballdw".
	JobName string
	// Tags are added to every series, e.g. "team:data".
	Tags []string
	// FlushEvery is the submission period. Defaults to one minute.
	FlushEvery time.Duration

	// test seams
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter submitter
}

// submitter is the subset of *datadogV2.MetricsApi the backend calls.
type submitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

type stageKey struct {
	stage  string
	status string
}

// buffer is one collection window.
type buffer struct {
	runs      map[stageKey]float64
	durations map[stageKey][]float64
	records   map[string]float64
}

func newBuffer() buffer {
	return buffer{
		runs:      map[stageKey]float64{},
		durations: map[stageKey][]float64{},
		records:   map[string]float64{},
	}
}

func (b buffer) empty() bool {
	return len(b.runs) == 0 && len(b.durations) == 0 && len(b.records) == 0
}

// Backend buffers pipeline metrics and ships them to Datadog.
type Backend struct {
	api  submitter
	ctx  context.Context
	tags []string
	now  func() time.Time

	mu  sync.Mutex
	buf buffer

	stop chan struct{}
	done chan struct{}
}

// NewBackend builds the Datadog client from the standard DD_* environment
// (DD_API_KEY, DD_SITE) and starts the periodic flush loop.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := strings.TrimSpace(opts.JobName)
	if job == "" {
		job = defaultJob
	}
	every := opts.FlushEvery
	if every <= 0 {
		every = defaultFlushEvery
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}

	api := opts.submitter
	if api == nil {
		api = datadogV2.NewMetricsApi(dd.NewAPIClient(dd.NewConfiguration()))
	}

	tags := append([]string{envTag(), "job:" + job}, opts.Tags...)

	b := &Backend{
		api:  api,
		ctx:  dd.NewDefaultContext(parent),
		tags: tags,
		now:  now,
		buf:  newBuffer(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go b.loop(newTicker(every))
	return b, nil
}

// envTag picks the environment from ENV, then DD_ENV.
func envTag() string {
	for _, k := range []string{"ENV", "DD_ENV"} {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return "env:" + v
		}
	}
	return "env:unknown"
}

func (b *Backend) loop(t *time.Ticker) {
	defer close(b.done)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stop:
			return
		}
	}
}

// Close stops the flush loop and submits what is left. Call once.
func (b *Backend) Close() error {
	close(b.stop)
	<-b.done
	return b.Flush()
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.StepTotal:
		b.buf.runs[keyOf(labels)] += delta
	case metrics.RecordsTotal:
		if kind := labels["kind"]; kind != "" {
			b.buf.records[kind] += delta
		}
	}
}

// ObserveHistogram implements metrics.Backend. Unknown names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 || name != metrics.StepDurationSeconds {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	k := keyOf(labels)
	b.buf.durations[k] = append(b.buf.durations[k], value)
}

func keyOf(l metrics.Labels) stageKey {
	k := stageKey{stage: l["step"], status: l["status"]}
	if k.status == "" {
		k.status = "unknown"
	}
	return k
}

// Flush submits the current window and starts a new one. The window is
// dropped even when submission fails.
func (b *Backend) Flush() error {
	b.mu.Lock()
	snap := b.buf
	b.buf = newBuffer()
	b.mu.Unlock()

	if snap.empty() {
		return nil
	}
	payload := datadogV2.MetricPayload{Series: b.series(snap, b.now().Unix())}
	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// series renders a window as Datadog series, sorted by metric name then tags.
func (b *Backend) series(w buffer, ts int64) []datadogV2.MetricSeries {
	var out []datadogV2.MetricSeries
	for k, v := range w.runs {
		out = append(out, point(seriesPrefix+"stage.runs", datadogV2.METRICINTAKETYPE_COUNT, v, ts, b.withTags(k.tags()...)))
	}
	for rel, v := range w.records {
		out = append(out, point(seriesPrefix+"records", datadogV2.METRICINTAKETYPE_COUNT, v, ts, b.withTags("relation:"+rel)))
	}
	for k, samples := range w.durations {
		if len(samples) == 0 {
			continue
		}
		s := append([]float64(nil), samples...)
		sort.Float64s(s)
		tags := b.withTags(k.tags()...)
		name := seriesPrefix + "stage.duration_seconds"
		out = append(out,
			point(name+".p50", datadogV2.METRICINTAKETYPE_GAUGE, nearestRank(s, 0.50), ts, tags),
			point(name+".p95", datadogV2.METRICINTAKETYPE_GAUGE, nearestRank(s, 0.95), ts, tags),
			point(name+".max", datadogV2.METRICINTAKETYPE_GAUGE, s[len(s)-1], ts, tags),
			point(name+".samples", datadogV2.METRICINTAKETYPE_GAUGE, float64(len(s)), ts, tags),
		)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Metric != out[j].Metric {
			return out[i].Metric < out[j].Metric
		}
		return strings.Join(out[i].Tags, ",") < strings.Join(out[j].Tags, ",")
	})
	return out
}

func (k stageKey) tags() []string {
	return []string{"stage:" + k.stage, "status:" + k.status}
}

func (b *Backend) withTags(extra ...string) []string {
	out := make([]string, 0, len(b.tags)+len(extra))
	out = append(out, b.tags...)
	return append(out, extra...)
}

func point(metric string, typ datadogV2.MetricIntakeType, v float64, ts int64, tags []string) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   typ.Ptr(),
		Points: []datadogV2.MetricPoint{{Timestamp: dd.PtrInt64(ts), Value: dd.PtrFloat64(v)}},
		Tags:   tags,
	}
}

// nearestRank expects sorted, non-empty s.
func nearestRank(s []float64, p float64) float64 {
	switch {
	case p <= 0:
		return s[0]
	case p >= 1:
		return s[len(s)-1]
	}
	i := int(p*float64(len(s)-1) + 0.5)
	if i >= len(s) {
		i = len(s) - 1
	}
	return s[i]
}

// ParseTags splits a comma-separated tag list ("env:prod, team:data"),
// dropping empty items.
func ParseTags(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ metrics.Backend = (*Backend)(nil)

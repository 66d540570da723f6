package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

var (
	submissionsTotal          = newCounterVec("form", "outcome")
	notificationFailuresTotal = newCounterVec("form", "kind")
	persistenceFailuresTotal  = newCounterVec("form")
	downloadsTotal            = newCounterVec("file", "outcome")

	submissionDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 10000})
)

// IncSubmission counts a finished pipeline run.
func IncSubmission(form, outcome string) {
	submissionsTotal.Inc(form, outcome)
}

// IncNotificationFailure counts a failed operator or acknowledgment send.
func IncNotificationFailure(form, kind string) {
	notificationFailuresTotal.Inc(form, kind)
}

// IncPersistenceFailure counts a record that could not be written.
func IncPersistenceFailure(form string) {
	persistenceFailuresTotal.Inc(form)
}

// IncDownload counts a download request by catalog key and outcome.
func IncDownload(file, outcome string) {
	downloadsTotal.Inc(file, outcome)
}

// ObserveSubmissionDurationMs records a pipeline duration in milliseconds.
func ObserveSubmissionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	submissionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounterVec(&buf, "form_submissions_total", "Form submissions by outcome", submissionsTotal)
	writeCounterVec(&buf, "notification_failures_total", "Failed notification sends", notificationFailuresTotal)
	writeCounterVec(&buf, "persistence_failures_total", "Records that could not be written", persistenceFailuresTotal)
	writeCounterVec(&buf, "downloads_total", "Download requests by outcome", downloadsTotal)
	writeHistogram(&buf, "form_submission_duration_ms", "Submission pipeline duration in milliseconds", submissionDuration.Snapshot())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	labels []string
	values map[string]uint64
}

func newCounterVec(labels ...string) *counterVec {
	return &counterVec{labels: labels, values: map[string]uint64{}}
}

func (v *counterVec) Inc(values ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.values[v.series(values)]++
}

func (v *counterVec) Get(values ...string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.values[v.series(values)]
}

func (v *counterVec) series(values []string) string {
	parts := make([]string, len(v.labels))
	for i, label := range v.labels {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		parts[i] = fmt.Sprintf("%s=%q", label, val)
	}
	return strings.Join(parts, ",")
}

func (v *counterVec) snapshot() ([]string, map[string]uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	keys := make([]string, 0, len(v.values))
	out := make(map[string]uint64, len(v.values))
	for k, n := range v.values {
		keys = append(keys, k)
		out[k] = n
	}
	sort.Strings(keys)
	return keys, out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounterVec(buf *bytes.Buffer, name, help string, v *counterVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys, values := v.snapshot()
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s} %d\n", name, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

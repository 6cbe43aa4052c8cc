package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	applicationsSubmittedTotal atomic.Uint64
	applicationsFailedTotal    atomic.Uint64
	resumeStoredTotal          atomic.Uint64
	resumeFallbackTotal        atomic.Uint64
	resumeUploadFailedTotal    atomic.Uint64
	applicantSyncFailedTotal   atomic.Uint64
	flyerRenderedTotal         atomic.Uint64
	flyerFailedTotal           atomic.Uint64
	panicsRecoveredTotal       atomic.Uint64

	resumeUploadDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000})
)

// IncApplicationSubmitted counts a stored application.
func IncApplicationSubmitted() {
	applicationsSubmittedTotal.Add(1)
}

// IncApplicationFailed counts a submission that could not be stored.
func IncApplicationFailed() {
	applicationsFailedTotal.Add(1)
}

// IncResumeStored counts a resume saved to object storage.
func IncResumeStored() {
	resumeStoredTotal.Add(1)
}

// IncResumeFallback counts a resume embedded inline after a storage failure.
func IncResumeFallback() {
	resumeFallbackTotal.Add(1)
}

// IncResumeUploadFailed counts a resume that produced no reference at all.
func IncResumeUploadFailed() {
	resumeUploadFailedTotal.Add(1)
}

// IncApplicantSyncFailed counts an admin mutation the store rejected.
func IncApplicantSyncFailed() {
	applicantSyncFailedTotal.Add(1)
}

// IncFlyerRendered counts a generated QR panel or flyer.
func IncFlyerRendered() {
	flyerRenderedTotal.Add(1)
}

// IncFlyerFailed counts a QR panel or flyer that could not be generated.
func IncFlyerFailed() {
	flyerFailedTotal.Add(1)
}

// IncPanicRecovered counts a handler panic turned into a 500.
func IncPanicRecovered() {
	panicsRecoveredTotal.Add(1)
}

// ObserveResumeUploadMs records a resume upload duration in milliseconds.
func ObserveResumeUploadMs(value float64) {
	if value < 0 {
		value = 0
	}
	resumeUploadDuration.Observe(value)
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
	writeCounter(&buf, "applications_submitted_total", "Applications stored", applicationsSubmittedTotal.Load())
	writeCounter(&buf, "applications_failed_total", "Applications rejected by the store", applicationsFailedTotal.Load())
	writeCounter(&buf, "resume_stored_total", "Resumes saved to object storage", resumeStoredTotal.Load())
	writeCounter(&buf, "resume_upload_fallback_total", "Resumes embedded inline after a storage failure", resumeFallbackTotal.Load())
	writeCounter(&buf, "resume_upload_failed_total", "Resumes dropped after both storage and inline encoding failed", resumeUploadFailedTotal.Load())
	writeCounter(&buf, "applicant_sync_failed_total", "Admin mutations not confirmed by the store", applicantSyncFailedTotal.Load())
	writeCounter(&buf, "flyer_rendered_total", "QR panels and flyers generated", flyerRenderedTotal.Load())
	writeCounter(&buf, "flyer_failed_total", "QR panels and flyers that failed to generate", flyerFailedTotal.Load())
	writeCounter(&buf, "http_panics_recovered_total", "Handler panics answered with 500", panicsRecoveredTotal.Load())
	writeHistogram(&buf, "resume_upload_duration_ms", "Resume upload duration in milliseconds", resumeUploadDuration.Snapshot())
	return buf.String()
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

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
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

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	jobsCreatedTotal           atomic.Uint64
	summariesGeneratedTotal    atomic.Uint64
	summariesAcceptedTotal     atomic.Uint64
	allocationsCreatedTotal    atomic.Uint64
	allocationsReassignedTotal atomic.Uint64
	allocationsClosedTotal     atomic.Uint64
	reconcileRepairsTotal      atomic.Uint64
	statusConflictsTotal       atomic.Uint64

	sweepMessagesReceivedTotal      atomic.Uint64
	sweepMessagesCompletedTotal     atomic.Uint64
	sweepMessagesFailedTotal        atomic.Uint64
	sweepMessagesUnrecoverableTotal atomic.Uint64

	summarizeDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncJobCreated increments the created-jobs counter.
func IncJobCreated() {
	jobsCreatedTotal.Add(1)
}

// IncSummaryGenerated increments the generated-summaries counter.
func IncSummaryGenerated() {
	summariesGeneratedTotal.Add(1)
}

// IncSummaryAccepted increments the accepted-summaries counter.
func IncSummaryAccepted() {
	summariesAcceptedTotal.Add(1)
}

// IncAllocationCreated increments the created-allocations counter.
func IncAllocationCreated() {
	allocationsCreatedTotal.Add(1)
}

// IncAllocationReassigned increments the reassigned-allocations counter.
func IncAllocationReassigned() {
	allocationsReassignedTotal.Add(1)
}

// IncAllocationClosed increments the closed-allocations counter.
func IncAllocationClosed() {
	allocationsClosedTotal.Add(1)
}

// AddReconcileRepairs records repairs made by a reconciliation sweep.
func AddReconcileRepairs(n int) {
	if n > 0 {
		reconcileRepairsTotal.Add(uint64(n))
	}
}

// IncStatusConflict increments the lost-status-race counter.
func IncStatusConflict() {
	statusConflictsTotal.Add(1)
}

// ObserveSummarizeDurationMs records a summarizer round-trip in milliseconds.
func ObserveSummarizeDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	summarizeDuration.Observe(value)
}

// IncSweepMessageReceived increments the received sweep-hints counter.
func IncSweepMessageReceived() {
	sweepMessagesReceivedTotal.Add(1)
}

// IncSweepMessageCompleted increments the processed sweep-hints counter.
func IncSweepMessageCompleted() {
	sweepMessagesCompletedTotal.Add(1)
}

// IncSweepMessageFailed increments the failed sweep-hints counter.
func IncSweepMessageFailed() {
	sweepMessagesFailedTotal.Add(1)
}

// IncSweepMessageUnrecoverable increments the dropped malformed sweep-hints counter.
func IncSweepMessageUnrecoverable() {
	sweepMessagesUnrecoverableTotal.Add(1)
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
	writeCounter(&buf, "jobs_created_total", "Total jobs created", jobsCreatedTotal.Load())
	writeCounter(&buf, "job_summaries_generated_total", "Total AI summaries generated", summariesGeneratedTotal.Load())
	writeCounter(&buf, "job_summaries_accepted_total", "Total AI summaries accepted", summariesAcceptedTotal.Load())
	writeCounter(&buf, "allocations_created_total", "Total allocations created", allocationsCreatedTotal.Load())
	writeCounter(&buf, "allocations_reassigned_total", "Total allocations reassigned", allocationsReassignedTotal.Load())
	writeCounter(&buf, "allocations_closed_total", "Total allocations completed or cancelled", allocationsClosedTotal.Load())
	writeCounter(&buf, "reconcile_repairs_total", "Total stale allocations repaired by the sweep", reconcileRepairsTotal.Load())
	writeCounter(&buf, "job_status_conflicts_total", "Total job status updates lost to a concurrent writer", statusConflictsTotal.Load())
	writeCounter(&buf, "sweep_messages_received_total", "Total reconcile hints received from the queue", sweepMessagesReceivedTotal.Load())
	writeCounter(&buf, "sweep_messages_completed_total", "Total reconcile hints processed", sweepMessagesCompletedTotal.Load())
	writeCounter(&buf, "sweep_messages_failed_total", "Total reconcile hints that failed processing", sweepMessagesFailedTotal.Load())
	writeCounter(&buf, "sweep_messages_unrecoverable_total", "Total malformed reconcile hints dropped", sweepMessagesUnrecoverableTotal.Load())
	writeHistogram(&buf, "summarize_duration_ms", "Summarizer round-trip in milliseconds", summarizeDuration.Snapshot())
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
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
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

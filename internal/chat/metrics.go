package chat

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pollCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "chat",
		Name:      "polls_total",
		Help:      "Number of message polls issued, by fetch mode.",
	}, []string{"mode"})

	pollFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "chat",
		Name:      "poll_failures_total",
		Help:      "Number of background polls that failed and were skipped.",
	})

	receivedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "chat",
		Name:      "messages_received_total",
		Help:      "Number of messages appended to a conversation view by polling.",
	})

	pollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "huddle",
		Subsystem: "chat",
		Name:      "poll_duration_seconds",
		Help:      "Duration of message poll requests.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(pollCounter, pollFailureCounter, receivedCounter, pollDuration)
}

func recordPoll(mode string, start time.Time) {
	pollCounter.WithLabelValues(mode).Inc()
	pollDuration.Observe(time.Since(start).Seconds())
}

func recordPollFailure() {
	pollFailureCounter.Inc()
}

func recordReceived(n int) {
	if n > 0 {
		receivedCounter.Add(float64(n))
	}
}

package metrics

import (
	"context"
	"time"
)

type pollMethod = func(ctx context.Context) error

// RecordPollerDuration wraps a poll method so every cycle of the monitoring
// and price refresh pollers lands in the poller duration histogram, labelled
// by poller type and outcome.
func RecordPollerDuration(pollerType string, f pollMethod) pollMethod {
	return func(ctx context.Context) error {
		startTime := time.Now()
		err := f(ctx)

		status := Success
		if err != nil {
			status = Error
		}
		pollerDurationHistogram.
			WithLabelValues(pollerType, status.String()).
			Observe(time.Since(startTime).Seconds())

		return err
	}
}

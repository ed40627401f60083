package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Source feeds a gauge from a count query.
type Source struct {
	Name  string
	Gauge prometheus.Gauge
	Count func(ctx context.Context) (int64, error)
}

// Refresher periodically recomputes queue-depth gauges.
type Refresher struct {
	cron    *cron.Cron
	sources []Source
	log     *zap.Logger
	timeout time.Duration
}

// NewRefresher schedules a refresh on schedule (standard cron or @every syntax).
func NewRefresher(schedule string, logger *zap.Logger, sources ...Source) (*Refresher, error) {
	r := &Refresher{
		cron:    cron.New(),
		sources: sources,
		log:     logger,
		timeout: 10 * time.Second,
	}
	if _, err := r.cron.AddFunc(schedule, func() { r.RefreshOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return r, nil
}

// RefreshOnce updates every gauge. Failures keep the previous value.
func (r *Refresher) RefreshOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	for _, s := range r.sources {
		n, err := s.Count(ctx)
		if err != nil {
			r.log.Warn("gauge refresh failed", zap.String("gauge", s.Name), zap.Error(err))
			continue
		}
		s.Gauge.Set(float64(n))
	}
}

// Start runs the schedule in the background.
func (r *Refresher) Start() { r.cron.Start() }

// Stop halts the schedule and waits for a running refresh.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

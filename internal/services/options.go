package services

import (
	"gorm.io/gorm"

	"github.com/Greg-CS/document-parser-sub001/internal/data/aggregates"
	"github.com/Greg-CS/document-parser-sub001/internal/observability"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/logger"
)

// Option overrides the write path or metrics of a service. Production
// wiring passes none.
type Option func(*serviceOptions)

type serviceOptions struct {
	runner  aggregates.TxRunner
	hooks   aggregates.Hooks
	metrics *observability.Metrics
}

func WithTxRunner(r aggregates.TxRunner) Option {
	return func(o *serviceOptions) { o.runner = r }
}

func WithHooks(h aggregates.Hooks) Option {
	return func(o *serviceOptions) { o.hooks = h }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *serviceOptions) { o.metrics = m }
}

func resolveOptions(db *gorm.DB, log *logger.Logger, opts []Option) (aggregates.BaseDeps, *observability.Metrics) {
	o := serviceOptions{metrics: observability.Current()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.hooks == nil {
		o.hooks = aggregates.NewObservabilityHooks(o.metrics, log)
	}
	return aggregates.BaseDeps{DB: db, Runner: o.runner, Hooks: o.hooks}, o.metrics
}

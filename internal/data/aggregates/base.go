package aggregates

import (
	"context"
	"errors"
	"strings"
	"time"

	domainagg "github.com/Greg-CS/document-parser-sub001/internal/domain/aggregates"
	"github.com/Greg-CS/document-parser-sub001/internal/platform/dbctx"
	"gorm.io/gorm"
)

// BaseDeps bundles what a transactional write needs. Runner and Hooks
// default to a gorm runner over DB and no-op hooks.
type BaseDeps struct {
	DB     *gorm.DB
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	return d
}

// ExecuteWrite runs fn in one transaction, maps the failure into a coded
// error and reports the outcome to the hooks.
func ExecuteWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	mapped := MapError(op, deps.Runner.InTx(ctx, fn))

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		switch code := domainagg.CodeOf(mapped); {
		case code == domainagg.CodeConflict:
			deps.Hooks.IncConflict(op)
		case code.Retryable():
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	if code := strings.TrimSpace(string(domainagg.CodeOf(err))); code != "" {
		return code
	}
	var pass interface{ Passthrough() bool }
	if errors.As(err, &pass) && pass.Passthrough() {
		return string(domainagg.CodeValidation)
	}
	return "failure"
}

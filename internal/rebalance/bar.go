package rebalance

import (
	"context"

	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"go.uber.org/zap"
)

// BarRebalancer is the per-bar rebalancer. It is called on every bar with the
// latest record of each feed and ignores feeds whose bar is not from the
// current event time.
type BarRebalancer struct {
	book
	config BarConfig
}

// NewBarRebalancer creates a per-bar rebalancer.
func NewBarRebalancer(name string, config BarConfig, sink ExecutionSink, log *logger.Logger) (*BarRebalancer, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "bar rebalancer", err)
	}

	return &BarRebalancer{
		book: book{
			name:  name,
			state: types.PortfolioState{},
			sink:  sink,
			log:   log,
		},
		config: config,
	}, nil
}

// OnEvent implements Rebalancer.
func (b *BarRebalancer) OnEvent(ctx context.Context, cs types.CrossSection) (Decision, error) {
	current := cs.Filter(func(record types.SignalRecord) bool {
		return record.Bar.IsSome() && record.Bar.Unwrap().Time.Equal(cs.Time)
	})

	if stale := len(cs.Records) - len(current.Records); stale > 0 {
		b.log.Debug("Ignoring stale feeds",
			zap.Time("time", cs.Time),
			zap.Int("stale", stale),
		)
	}

	decision, err := Decide(current, b.state, b.config.Config())
	if err != nil {
		return decision, err
	}

	return b.commit(ctx, decision)
}

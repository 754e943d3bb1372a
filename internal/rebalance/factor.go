package rebalance

import (
	"context"

	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"go.uber.org/zap"
)

// book holds the portfolio state shared by both rebalancer variants and
// forwards decisions to the execution sink.
type book struct {
	name  string
	state types.PortfolioState
	sink  ExecutionSink
	log   *logger.Logger
}

func (b *book) State() types.PortfolioState {
	return b.state.Clone()
}

func (b *book) Name() string {
	return b.name
}

// commit submits the decision and advances the state once the sink accepts it.
func (b *book) commit(ctx context.Context, decision Decision) (Decision, error) {
	stamp(decision.Instructions, b.name)

	if len(decision.Instructions) == 0 {
		return decision, nil
	}

	if err := b.sink.Submit(ctx, decision.Instructions); err != nil {
		b.log.Error("Execution sink rejected instructions",
			zap.Time("time", decision.Time),
			zap.Int("instructions", len(decision.Instructions)),
			zap.Error(err),
		)

		return decision, errors.Wrapf(errors.ErrCodeSinkRejected, err, "sink rejected %d instructions", len(decision.Instructions))
	}

	b.state = decision.Next

	b.log.Debug("Rebalanced",
		zap.Time("time", decision.Time),
		zap.Strings("longs", decision.Longs),
		zap.Strings("shorts", decision.Shorts),
		zap.Float64("long_target", decision.LongTarget),
		zap.Float64("short_target", decision.ShortTarget),
		zap.Bool("rejected", decision.Rejected),
	)

	return decision, nil
}

// FactorRebalancer is the pipeline-style rebalancer: it receives a full factor
// cross-section, rebalances every Every-th event and only trades instruments
// that have a price on the event.
type FactorRebalancer struct {
	book
	config Config
	every  int
	events int
}

// NewFactorRebalancer creates a pipeline-style rebalancer. every <= 1 rebalances on every event.
func NewFactorRebalancer(name string, config Config, every int, sink ExecutionSink, log *logger.Logger) (*FactorRebalancer, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "factor rebalancer", err)
	}

	if every < 1 {
		every = 1
	}

	return &FactorRebalancer{
		book: book{
			name:  name,
			state: types.PortfolioState{},
			sink:  sink,
			log:   log,
		},
		config: config,
		every:  every,
		events: 0,
	}, nil
}

// OnEvent implements Rebalancer.
func (f *FactorRebalancer) OnEvent(ctx context.Context, cs types.CrossSection) (Decision, error) {
	f.events++
	if (f.events-1)%f.every != 0 {
		return Decision{Time: cs.Time, Skipped: true, Next: f.State()}, nil
	}

	tradable := cs.Filter(func(record types.SignalRecord) bool {
		return record.Bar.IsSome() && record.Bar.Unwrap().Tradable()
	})

	decision, err := Decide(tradable, f.state, f.config)
	if err != nil {
		return decision, err
	}

	return f.commit(ctx, decision)
}

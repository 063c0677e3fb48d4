package tasksync

import "github.com/joeycumines/go-tasksync/clock"

// schedulerOptions holds the resolved configuration for either
// scheduler constructor.
type schedulerOptions struct {
	logger      Logger
	clock       clock.Clock
	metrics     bool
	parallelism int
}

// SchedulerOption configures a CooperativeScheduler or
// ParallelScheduler constructor, following the teacher package's
// functional-options pattern (LoopOption/applyLoop).
type SchedulerOption interface {
	apply(*schedulerOptions)
}

type schedulerOptionFunc func(*schedulerOptions)

func (f schedulerOptionFunc) apply(o *schedulerOptions) { f(o) }

// WithLogger attaches a Logger to the scheduler itself. It is not
// passed on to channels (they take their own via WithChannelLogger) or
// to the locks the scheduler mints, which do not log.
func WithLogger(logger Logger) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.logger = logger })
}

// WithClock overrides the monotonic clock used to resolve Wait and
// TimeOut. Tests inject a fake one; production code normally omits
// this option and gets clock.Monotonic().
func WithClock(c clock.Clock) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.clock = c })
}

// WithMetrics enables latency/throughput instrumentation, readable
// back via Scheduler.Metrics. Disabled by default, and effectively
// free when disabled (the hot paths are nil-checked).
func WithMetrics(enabled bool) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.metrics = enabled })
}

// WithParallelism records a GOMAXPROCS-style parallelism hint. It is
// advisory: ParallelScheduler does not read it (every forked task gets
// its own goroutine), and the cooperative scheduler ignores it with a
// debug log line.
func WithParallelism(n int) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.parallelism = n })
}

func resolveSchedulerOptions(opts []SchedulerOption) *schedulerOptions {
	cfg := &schedulerOptions{
		logger:      NewNoOpLogger(),
		clock:       clock.Monotonic(),
		parallelism: 1,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}

// channelOptions holds the resolved configuration for NewChannel.
type channelOptions struct {
	logger  Logger
	limiter contentionLimiter
}

// ChannelOption configures NewChannel.
type ChannelOption interface {
	applyChannel(*channelOptions)
}

type channelOptionFunc func(*channelOptions)

func (f channelOptionFunc) applyChannel(o *channelOptions) { f(o) }

// WithChannelLogger attaches a Logger to a single channel. Without it
// the channel uses a no-op logger; the scheduler's logger is not
// used.
func WithChannelLogger(logger Logger) ChannelOption {
	return channelOptionFunc(func(o *channelOptions) { o.logger = logger })
}

// WithContentionLimiter caps how often a channel logs its
// Claimed-retry debug line, so a busy Select spin does not flood
// output. No limiter is set by default, so every retry line is logged
// when the channel's logger has debug enabled. internal/ratelimit.Limiter
// satisfies the interface.
func WithContentionLimiter(limiter contentionLimiter) ChannelOption {
	return channelOptionFunc(func(o *channelOptions) { o.limiter = limiter })
}

func resolveChannelOptions(opts []ChannelOption) *channelOptions {
	cfg := &channelOptions{
		logger: NewNoOpLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyChannel(cfg)
	}
	return cfg
}

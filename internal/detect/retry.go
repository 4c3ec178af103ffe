package detect

import (
	"context"
	"time"

	"github.com/byteowlz/tailr/internal/logging"
)

// State is where the retry loop ended up.
type State string

const (
	Attempting State = "attempting"
	Succeeded  State = "succeeded"
	Exhausted  State = "exhausted"
)

// RetryPolicy bounds the loop: Budget attempts each followed by Delay, then
// one final attempt.
type RetryPolicy struct {
	Budget int
	Delay  time.Duration
}

// DefaultRetryPolicy covers job panels that render about a second or two after load.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Budget: 3, Delay: time.Second}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Attempt runs the detection pipeline once.
type Attempt func(ctx context.Context) Result

// Outcome is the definitive result of a retried detection.
type Outcome struct {
	Result   Result
	State    State
	Attempts int
}

// Orchestrator repeats an Attempt until it finds a record or the budget runs out.
type Orchestrator struct {
	policy RetryPolicy
	sleep  SleepFunc
	log    *logging.Logger
}

// NewOrchestrator returns an orchestrator that waits with a timer between attempts.
func NewOrchestrator(policy RetryPolicy, log *logging.Logger) *Orchestrator {
	if policy.Budget < 0 {
		policy.Budget = 0
	}
	return &Orchestrator{policy: policy, sleep: timerSleep, log: log.With("retry")}
}

// SetSleep replaces the wait between attempts.
func (o *Orchestrator) SetSleep(fn SleepFunc) {
	if fn != nil {
		o.sleep = fn
	}
}

// Run always returns a result. If ctx is cancelled during a wait, the
// remaining waits are skipped and the final attempt still runs.
func (o *Orchestrator) Run(ctx context.Context, attempt Attempt) Outcome {
	attempts := 0
	for i := 0; i < o.policy.Budget; i++ {
		attempts++
		if res := attempt(ctx); res.Found {
			return Outcome{Result: res, State: Succeeded, Attempts: attempts}
		}

		o.log.Debugf("attempt %d found nothing, retrying in %v", attempts, o.policy.Delay)
		if err := o.sleep(ctx, o.policy.Delay); err != nil {
			o.log.Debugf("wait interrupted: %v", err)
			break
		}
	}

	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	attempts++
	res := attempt(ctx)
	state := Exhausted
	if res.Found {
		state = Succeeded
	}
	return Outcome{Result: res, State: state, Attempts: attempts}
}

func timerSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

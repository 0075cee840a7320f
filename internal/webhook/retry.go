package webhook

import "time"

// Action is the dispatcher's next move for one message.
type Action int

const (
	// Succeed terminates the message: log success and acknowledge.
	Succeed Action = iota
	// Retry waits the fixed delay and attempts again.
	Retry
	// Fail terminates the message: log the failure and acknowledge.
	Fail
)

// Decision is the policy's verdict for one attempt outcome.
type Decision struct {
	Action Action
	Wait   time.Duration // populated only for Retry
}

// Policy decides, per attempt outcome, whether a message retries or
// terminates. The delay between attempts is a single fixed value, not an
// exponential schedule.
type Policy struct {
	MaxRetries int
	Delay      time.Duration
}

// Decide maps (retry count, outcome) to the next action. It is a pure
// function: identical inputs always yield identical decisions. A permanent
// failure terminates immediately regardless of the retry count.
func (p Policy) Decide(retryCount int, out Outcome) Decision {
	switch out.Kind {
	case Delivered:
		return Decision{Action: Succeed}
	case PermanentFailure:
		return Decision{Action: Fail}
	default:
		if retryCount+1 >= p.MaxRetries {
			return Decision{Action: Fail}
		}
		return Decision{Action: Retry, Wait: p.Delay}
	}
}

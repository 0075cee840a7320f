package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyDecide(t *testing.T) {
	policy := Policy{MaxRetries: 3, Delay: 60 * time.Second}

	tests := []struct {
		name       string
		retryCount int
		out        Outcome
		want       Decision
	}{
		{
			name:       "delivered on first attempt",
			retryCount: 0,
			out:        Outcome{Kind: Delivered, StatusCode: 200},
			want:       Decision{Action: Succeed},
		},
		{
			name:       "delivered on last attempt",
			retryCount: 2,
			out:        Outcome{Kind: Delivered, StatusCode: 200},
			want:       Decision{Action: Succeed},
		},
		{
			name:       "permanent failure terminates immediately",
			retryCount: 0,
			out:        Outcome{Kind: PermanentFailure, StatusCode: 404, Reason: "http status 404"},
			want:       Decision{Action: Fail},
		},
		{
			name:       "transient failure retries with fixed delay",
			retryCount: 0,
			out:        Outcome{Kind: TransientFailure, StatusCode: 500, Reason: "http status 500"},
			want:       Decision{Action: Retry, Wait: 60 * time.Second},
		},
		{
			name:       "transient failure keeps the same delay on later attempts",
			retryCount: 1,
			out:        Outcome{Kind: TransientFailure, Reason: "timeout"},
			want:       Decision{Action: Retry, Wait: 60 * time.Second},
		},
		{
			name:       "transient failure exhausts retries",
			retryCount: 2,
			out:        Outcome{Kind: TransientFailure, Reason: "timeout"},
			want:       Decision{Action: Fail},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Decide(tt.retryCount, tt.out))
		})
	}
}

func TestPolicyDecideDeterministic(t *testing.T) {
	policy := Policy{MaxRetries: 3, Delay: time.Second}
	out := Outcome{Kind: TransientFailure, StatusCode: 500, Reason: "http status 500"}

	first := policy.Decide(1, out)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, policy.Decide(1, out))
	}
}

func TestPolicyDecideZeroMaxRetries(t *testing.T) {
	policy := Policy{MaxRetries: 0, Delay: time.Second}
	out := Outcome{Kind: TransientFailure, Reason: "timeout"}

	assert.Equal(t, Decision{Action: Fail}, policy.Decide(0, out))
}

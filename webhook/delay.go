package webhook

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// MaxDelayMilliseconds is the largest delay that still fits in a time.Duration
const MaxDelayMilliseconds = math.MaxInt64 / int64(time.Millisecond)

/* DelayType tags the variant held by a DelaySpec
 * Fixed waits an exact number of milliseconds
 * Uniform draws a wait from a closed range on every firing
 */
type DelayType int

const (
	FixedDelay DelayType = iota + 1
	UniformDelay
)

// String returns the string representation of the delay type
func (d DelayType) String() string {
	switch d {
	case FixedDelay:
		return "fixed"
	case UniformDelay:
		return "uniform"
	default:
		return "unknown"
	}
}

// NewDelayType creates a DelayType from a string
func NewDelayType(s string) (DelayType, error) {
	switch s {
	case "fixed":
		return FixedDelay, nil
	case "uniform":
		return UniformDelay, nil
	default:
		return 0, fmt.Errorf("unknown delay type: %q", s)
	}
}

// DelaySpec describes the wait before a webhook is sent. All values are milliseconds.
type DelaySpec struct {
	Type         DelayType
	Milliseconds int64
	Lower        int64
	Upper        int64
}

// NewFixedDelay returns a delay of exactly ms milliseconds
func NewFixedDelay(ms int64) (DelaySpec, error) {
	d := DelaySpec{Type: FixedDelay, Milliseconds: ms}
	if err := d.Validate(); err != nil {
		return DelaySpec{}, err
	}
	return d, nil
}

// NewUniformDelay returns a delay drawn uniformly from [lower, upper]
func NewUniformDelay(lower, upper int64) (DelaySpec, error) {
	d := DelaySpec{Type: UniformDelay, Lower: lower, Upper: upper}
	if err := d.Validate(); err != nil {
		return DelaySpec{}, err
	}
	return d, nil
}

// Validate checks if the delay spec is valid
func (d DelaySpec) Validate() error {
	switch d.Type {
	case FixedDelay:
		if d.Milliseconds < 0 {
			return fmt.Errorf("fixed delay cannot be negative (got %d)", d.Milliseconds)
		}
		if d.Milliseconds > MaxDelayMilliseconds {
			return fmt.Errorf("fixed delay cannot exceed %dms (got %d)", MaxDelayMilliseconds, d.Milliseconds)
		}
	case UniformDelay:
		if d.Lower < 0 || d.Upper < 0 {
			return fmt.Errorf("uniform delay bounds cannot be negative (got %d..%d)", d.Lower, d.Upper)
		}
		if d.Upper > MaxDelayMilliseconds {
			return fmt.Errorf("uniform delay upper bound cannot exceed %dms (got %d)", MaxDelayMilliseconds, d.Upper)
		}
		if d.Lower > d.Upper {
			return fmt.Errorf("uniform delay lower bound %d is greater than upper bound %d", d.Lower, d.Upper)
		}
	default:
		return fmt.Errorf("invalid delay type: %d", d.Type)
	}
	return nil
}

/* DelayPolicy turns a DelaySpec into a concrete wait
 * The zero value draws from the process-wide math/rand/v2 source, which is safe for concurrent use
 */
type DelayPolicy struct {
	// Int64N returns a value in [0, n). Defaults to rand.Int64N.
	Int64N func(n int64) int64
}

// ComputeWait returns the wait for one firing. A nil spec means no wait.
func (p DelayPolicy) ComputeWait(spec *DelaySpec) time.Duration {
	if spec == nil {
		return 0
	}
	switch spec.Type {
	case FixedDelay:
		return time.Duration(spec.Milliseconds) * time.Millisecond
	case UniformDelay:
		span := spec.Upper - spec.Lower
		if span <= 0 {
			return time.Duration(spec.Lower) * time.Millisecond
		}
		int64n := p.Int64N
		if int64n == nil {
			int64n = rand.Int64N
		}
		// span+1 keeps the upper bound reachable
		return time.Duration(spec.Lower+int64n(span+1)) * time.Millisecond
	default:
		return 0
	}
}

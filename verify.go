package nilguard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/unbound-force/nilguard/guard"
	"github.com/unbound-force/nilguard/internal/execution"
)

// Verdict classifies the outcome of a case.
type Verdict int

// Verdicts.
const (
	// NotRun means the case was never verified, because the context
	// ended first.
	NotRun Verdict = iota

	// Passed means the member failed with a nil-argument error naming
	// the nil parameter.
	Passed

	// WrongError means the member failed some other way, or named a
	// different parameter.
	WrongError

	// NoError means the member accepted nil.
	NoError

	// CompositionFailed means the case could not be set up.
	CompositionFailed
)

func (v Verdict) String() string {
	switch v {
	case NotRun:
		return "not-run"
	case Passed:
		return "passed"
	case WrongError:
		return "wrong-error"
	case NoError:
		return "no-error"
	case CompositionFailed:
		return "composition-failed"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}

// Result is the verdict for one case.
type Result struct {
	Case    *MethodData
	Verdict Verdict

	// Err is what the case completed with.
	Err error
}

// Message describes a result for a test log.
func (r Result) Message() string {
	switch r.Verdict {
	case NotRun:
		return fmt.Sprintf("%s: not run", r.Case)
	case Passed:
		return fmt.Sprintf("%s: rejected nil %s", r.Case, r.Case.NullParam())
	case NoError:
		return fmt.Sprintf("%s: accepted nil %s without an error", r.Case, r.Case.NullParam())
	case CompositionFailed:
		return fmt.Sprintf("%s: could not set up the case: %v", r.Case, r.Err)
	default:
		if p, ok := guard.ParamOf(r.Err); ok {
			return fmt.Sprintf("%s: nil-argument error names %q, want %q", r.Case, p, r.Case.NullParam())
		}
		return fmt.Sprintf("%s: want a nil-argument error for %s, got: %v", r.Case, r.Case.NullParam(), r.Err)
	}
}

// Verify runs d and classifies the outcome. ctx bounds the wait for
// asynchronous results.
func Verify(ctx context.Context, d *MethodData) Result {
	err := d.Call(ctx).Wait(ctx)
	res := Result{Case: d, Err: err}

	var cerr *execution.CompositionError
	switch {
	case !d.Composed() && errors.As(err, &cerr):
		res.Verdict = CompositionFailed
	case err == nil:
		res.Verdict = NoError
	default:
		if p, ok := guard.ParamOf(err); ok && p == d.NullParam() {
			res.Verdict = Passed
		} else {
			res.Verdict = WrongError
		}
	}
	return res
}

// VerifyAll verifies cases with at most limit running at once; zero
// means no limit. Results are in case order. The error is non-nil only
// when ctx ends before every case ran; the cases left over keep the
// NotRun verdict.
func VerifyAll(ctx context.Context, cases []*MethodData, limit int) ([]Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	results := make([]Result, len(cases))
	for i, d := range cases {
		results[i] = Result{Case: d, Verdict: NotRun}
	}
	for i, d := range cases {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Verify(ctx, d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Run verifies every case of f as a subtest named after the case. Any
// verdict but Passed fails the subtest. When the configuration sets
// parallel, subtests run in parallel with at most that many executing
// at once.
func Run(t *testing.T, f *Fixture) {
	t.Helper()
	var sem *semaphore.Weighted
	if f.parallel > 0 {
		sem = semaphore.NewWeighted(int64(f.parallel))
	}
	n := 0
	for d := range f.Cases() {
		n++
		t.Run(d.String(), func(t *testing.T) {
			if sem != nil {
				t.Parallel()
				if err := sem.Acquire(t.Context(), 1); err != nil {
					t.Fatal(err)
				}
				defer sem.Release(1)
			}
			res := Verify(t.Context(), d)
			if res.Verdict != Passed {
				t.Error(res.Message())
			}
		})
	}
	if n == 0 {
		t.Logf("no nil-argument cases in %s", f.asm.Path)
	}
}

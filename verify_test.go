package nilguard_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unbound-force/nilguard"
	"github.com/unbound-force/nilguard/guard"
	"github.com/unbound-force/nilguard/internal/config"
)

func TestVerify_Messages(t *testing.T) {
	asm, pkg := pkgAssembly()
	function(pkg, "Wrong", func(s *string) error { return &guard.ArgumentNilError{Param: "other"} }, "s")
	function(pkg, "Fails", func(s *string) error { return errors.New("boom") }, "s")
	function(pkg, "Panics", func(s *string) error { panic("unreachable state") }, "s")

	tests := map[string]struct {
		verdict nilguard.Verdict
		message string
	}{
		"Wrong(s)":  {nilguard.WrongError, `names "other", want "s"`},
		"Fails(s)":  {nilguard.WrongError, "got: boom"},
		"Panics(s)": {nilguard.WrongError, "unreachable state"},
	}
	for _, d := range newFixture(t, asm).GetData() {
		res := nilguard.Verify(context.Background(), d)
		want, ok := tests[d.String()]
		if !ok {
			t.Fatalf("unexpected case %s", d)
		}
		if res.Verdict != want.verdict {
			t.Errorf("%s: verdict %s, want %s", d, res.Verdict, want.verdict)
		}
		if !strings.Contains(res.Message(), want.message) {
			t.Errorf("%s: message %q should contain %q", d, res.Message(), want.message)
		}
	}

	var panicked *nilguard.PanicError
	for _, d := range newFixture(t, asm).GetData() {
		if d.String() == "Panics(s)" && !errors.As(nilguard.Verify(context.Background(), d).Err, &panicked) {
			t.Error("non-error panic values should surface as *PanicError")
		}
	}
}

func TestVerifyAll_Canceled(t *testing.T) {
	asm, pkg := pkgAssembly()
	function(pkg, "F", func(s *string) error { return nil }, "s")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := nilguard.VerifyAll(ctx, newFixture(t, asm).GetData(), 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("VerifyAll() = %v, want context.Canceled", err)
	}
}

func TestVerifyAll_CanceledLeavesNotRun(t *testing.T) {
	asm, pkg := pkgAssembly()
	function(pkg, "F", func(s *string) error { return nil }, "s")
	function(pkg, "G", func(m map[string]int) error { return nil }, "m")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cases := newFixture(t, asm).GetData()
	results, _ := nilguard.VerifyAll(ctx, cases, 0)
	if len(results) != len(cases) {
		t.Fatalf("got %d results for %d cases", len(results), len(cases))
	}
	for i, r := range results {
		if r.Verdict != nilguard.NotRun {
			t.Errorf("%s: verdict %s, want not-run", cases[i], r.Verdict)
		}
		if r.Case != cases[i] {
			t.Errorf("result %d should keep its case", i)
		}
		if !strings.Contains(r.Message(), "not run") {
			t.Errorf("message %q should say the case did not run", r.Message())
		}
	}
}

func TestRun_ParallelLimit(t *testing.T) {
	var running, peak atomic.Int32
	check := func(s *string) error {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return guard.NotNil("s", s)
	}
	asm, pkg := pkgAssembly()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		function(pkg, name, check, "s")
	}

	cfg := config.DefaultConfig()
	cfg.Parallel = 2
	f := newFixture(t, asm, nilguard.WithConfig(cfg))
	t.Run("cases", func(t *testing.T) {
		nilguard.Run(t, f)
	})

	if got := peak.Load(); got < 1 || got > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", got)
	}
}

func TestVerdict_String(t *testing.T) {
	for v, want := range map[nilguard.Verdict]string{
		nilguard.NotRun:            "not-run",
		nilguard.Passed:            "passed",
		nilguard.WrongError:        "wrong-error",
		nilguard.NoError:           "no-error",
		nilguard.CompositionFailed: "composition-failed",
		nilguard.Verdict(9):        "Verdict(9)",
	} {
		if got := v.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(v), got, want)
		}
	}
}

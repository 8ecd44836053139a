package wipe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func instantSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func TestNormalize(t *testing.T) {
	l := DefaultLimits()

	got, err := Request{DeviceID: " dev_1 "}.Normalize(l)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got.DeviceID != "dev_1" || got.Mode != ModeSimulation || got.Passes != 3 || got.Standard != StandardDoD {
		t.Fatalf("defaults not applied: %+v", got)
	}

	got, err = Request{DeviceID: "d", Mode: "DRY-RUN", Standard: "NIST", Passes: 1}.Normalize(l)
	if err != nil || got.Mode != ModeDryRun || got.Standard != StandardNIST {
		t.Fatalf("got %+v err=%v", got, err)
	}

	bad := []Request{
		{},
		{DeviceID: "d", Mode: "shred"},
		{DeviceID: "d", Standard: "schneier"},
		{DeviceID: "d", Passes: 36},
		{DeviceID: "d", Passes: -1},
	}
	for _, r := range bad {
		if _, err := r.Normalize(l); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("%+v: err=%v want ErrInvalidRequest", r, err)
		}
	}
}

func TestEstimateDuration(t *testing.T) {
	cases := map[Standard]int{
		StandardNIST:    64,
		StandardDoD:     120,
		StandardGutmann: 120,
		"other":         120,
	}
	for s, want := range cases {
		if got := EstimateDuration(s); got != want {
			t.Fatalf("EstimateDuration(%s)=%d want %d", s, got, want)
		}
	}
}

func TestPattern(t *testing.T) {
	if Pattern(StandardDoD, 1) != "0x00" || Pattern(StandardDoD, 2) != "0xFF" || Pattern(StandardDoD, 7) != "Random" {
		t.Fatalf("unexpected DoD patterns")
	}
	if len(gutmannPatterns) != 35 {
		t.Fatalf("gutmann table has %d entries", len(gutmannPatterns))
	}
	if Pattern(StandardGutmann, 2) != "0x55" || Pattern(StandardGutmann, 28) != "0xB6" || Pattern(StandardGutmann, 99) != "Random" {
		t.Fatalf("unexpected Gutmann patterns")
	}
	if Pattern(StandardNIST, 1) != "Cryptographic Random" {
		t.Fatalf("unexpected NIST pattern")
	}
}

func TestSimulatorRunCompletes(t *testing.T) {
	sess := Session{WipeID: "w1", DeviceID: "dev_1", Mode: ModeSimulation, Passes: 3, Standard: StandardDoD}
	sim := NewSimulator(sess, WithSleep(instantSleep))

	var updates []Progress
	if err := sim.Run(context.Background(), func(p Progress) { updates = append(updates, p) }); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 3 setup phases, 21 steps per pass, verify, complete
	if want := 3 + 3*21 + 2; len(updates) != want {
		t.Fatalf("got %d updates want %d", len(updates), want)
	}
	prev := -1.0
	for i, p := range updates {
		if p.Progress < prev {
			t.Fatalf("progress went backwards at %d: %v < %v", i, p.Progress, prev)
		}
		prev = p.Progress
		if p.Mode != "SIMULATION" || p.WipeID != "w1" {
			t.Fatalf("update %d: %+v", i, p)
		}
	}

	first := updates[3]
	if first.Status != StatusWiping || first.Progress != 10 || *first.PassProgress != 0 || first.Pattern != "0x00" {
		t.Fatalf("first wiping update %+v", first)
	}
	endOfPass1 := updates[3+20]
	if endOfPass1.Progress != 36.7 || *endOfPass1.PassProgress != 100 {
		t.Fatalf("end of pass 1 %+v", endOfPass1)
	}

	last := updates[len(updates)-1]
	if last.Status != StatusCompleted || last.Progress != 100 || !last.Completed || last.Summary == nil {
		t.Fatalf("final update %+v", last)
	}
	if last.Summary.Standard != "DOD" || last.Summary.DeviceID != "dev_1" || last.Summary.Passes != 3 {
		t.Fatalf("summary %+v", last.Summary)
	}
	if updates[len(updates)-2].Progress != 92 {
		t.Fatalf("verification step missing")
	}
}

func TestSimulatorCancelled(t *testing.T) {
	sess := Session{WipeID: "w2", Mode: ModeDryRun, Passes: 2, Standard: StandardNIST}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	sleep := func(ctx context.Context, _ time.Duration) error {
		calls++
		if calls == 5 {
			cancel()
		}
		return ctx.Err()
	}
	sim := NewSimulator(sess, WithSleep(sleep))

	var last Progress
	err := sim.Run(ctx, func(p Progress) { last = p })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if last.Status != StatusCancelled || !last.Cancelled || last.CancelledAt == nil {
		t.Fatalf("final update %+v", last)
	}
	if last.Mode != "DRY-RUN" || last.CurrentPass != 1 || last.Progress <= 10 {
		t.Fatalf("cancelled update should carry pass state: %+v", last)
	}
}

func TestSimulatorSpeedup(t *testing.T) {
	var mu sync.Mutex
	var total time.Duration
	sleep := func(_ context.Context, d time.Duration) error {
		mu.Lock()
		total += d
		mu.Unlock()
		return nil
	}
	sess := Session{WipeID: "w3", Mode: ModeSimulation, Passes: 1, Standard: StandardNIST}
	if err := NewSimulator(sess, WithSleep(sleep), WithSpeedup(10)).Run(context.Background(), func(Progress) {}); err != nil {
		t.Fatal(err)
	}
	// 1+2+2+3 seconds of phases plus 21 steps of 0.5s, divided by 10
	want := time.Duration((8 + 21*0.5) / 10 * float64(time.Second))
	if diff := total - want; diff > time.Millisecond || diff < -time.Millisecond {
		t.Fatalf("total sleep %v want %v", total, want)
	}
}

func TestManagerLifecycle(t *testing.T) {
	var issued Session
	m := NewManager(nil,
		WithSimulatorOptions(WithSleep(instantSleep)),
		OnComplete(func(_ context.Context, s Session, final Progress) (string, error) {
			issued = s
			if !final.Completed {
				t.Errorf("completion called with %+v", final)
			}
			return "CERT1234", nil
		}),
	)

	res, err := m.Start(Request{DeviceID: "dev_abc", Passes: 2, Standard: StandardNIST})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Status != "started" || res.Mode != "SIMULATION" || res.EstimatedDuration != 64 {
		t.Fatalf("start result %+v", res)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	final, err := m.Wait(ctx, res.WipeID)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if final.Status != StatusCompleted || final.CertificateID != "CERT1234" {
		t.Fatalf("final progress %+v", final)
	}
	if issued.WipeID != res.WipeID || issued.CompletedAt == nil {
		t.Fatalf("completion callback session %+v", issued)
	}

	sess, err := m.Session(res.WipeID)
	if err != nil || sess.Status != StatusCompleted {
		t.Fatalf("session=%+v err=%v", sess, err)
	}
}

func TestManagerCancel(t *testing.T) {
	release := make(chan struct{})
	blockingSleep := func(ctx context.Context, _ time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-release:
			return nil
		}
	}
	m := NewManager(nil, WithSimulatorOptions(WithSleep(blockingSleep)))
	defer close(release)

	res, err := m.Start(Request{DeviceID: "dev_abc"})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Cancel(res.WipeID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	final, err := m.Wait(ctx, res.WipeID)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if final.Status != StatusCancelled || final.CertificateID != "" {
		t.Fatalf("final progress %+v", final)
	}
}

func TestManagerErrors(t *testing.T) {
	m := NewManager(nil)

	if _, err := m.Start(Request{DeviceID: "dev_1", Mode: ModeReal}); !errors.Is(err, ErrRealWipeDisabled) {
		t.Fatalf("real mode err=%v want ErrRealWipeDisabled", err)
	}
	if _, err := m.Start(Request{Mode: ModeSimulation}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("missing device err=%v want ErrInvalidRequest", err)
	}
	if _, err := m.Progress("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Progress err=%v", err)
	}
	if err := m.Cancel("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Cancel err=%v", err)
	}
}

func TestManagerShutdown(t *testing.T) {
	blockingSleep := func(ctx context.Context, _ time.Duration) error {
		<-ctx.Done()
		return ctx.Err()
	}
	m := NewManager(nil, WithSimulatorOptions(WithSleep(blockingSleep)))
	for i := 0; i < 3; i++ {
		if _, err := m.Start(Request{DeviceID: "dev_1"}); err != nil {
			t.Fatal(err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestRealOperationsAreDisabled(t *testing.T) {
	r := NewRealOperations(nil)
	ctx := context.Background()
	errs := []error{
		r.NVMeSecureErase(ctx, "/dev/nvme0n1"),
		r.ATASecureErase(ctx, "/dev/sda"),
		r.MultiPassOverwrite(ctx, "/dev/sdb", StandardDoD, 3),
	}
	for i, err := range errs {
		if !errors.Is(err, ErrRealWipeDisabled) {
			t.Fatalf("op %d: err=%v", i, err)
		}
	}
}

func TestOverwritePlan(t *testing.T) {
	plan := OverwritePlan(StandardDoD, 4)
	if len(plan) != 4 {
		t.Fatalf("plan length %d", len(plan))
	}
	if plan[0].Source != "/dev/zero" || plan[1].Pattern != "0xFF" || plan[3].Source != "/dev/urandom" {
		t.Fatalf("plan %+v", plan)
	}
	if nist := OverwritePlan(StandardNIST, 1); nist[0].Source != "/dev/urandom" {
		t.Fatalf("nist plan %+v", nist)
	}
	for _, passes := range []int{0, -1, -100} {
		if plan := OverwritePlan(StandardDoD, passes); len(plan) != 0 {
			t.Fatalf("passes=%d: plan %+v", passes, plan)
		}
	}
}

func TestParseStandard(t *testing.T) {
	if s, err := ParseStandard(" Gutmann "); err != nil || s != StandardGutmann {
		t.Fatalf("ParseStandard: %q %v", s, err)
	}
	if _, err := ParseStandard("rot13"); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err=%v want ErrInvalidRequest", err)
	}
}

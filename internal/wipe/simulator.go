package wipe

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Simulator walks a session through the wipe phases without touching any device.
type Simulator struct {
	session   Session
	estimated int
	sleep     SleepFunc
	now       func() time.Time
	speedup   float64
}

// SimOption customises a Simulator.
type SimOption func(*Simulator)

// WithSleep replaces the real timer, mostly for tests.
func WithSleep(fn SleepFunc) SimOption {
	return func(s *Simulator) { s.sleep = fn }
}

func WithNow(fn func() time.Time) SimOption {
	return func(s *Simulator) { s.now = fn }
}

// WithSpeedup divides every delay by factor. Values <= 0 are ignored.
func WithSpeedup(factor float64) SimOption {
	return func(s *Simulator) {
		if factor > 0 {
			s.speedup = factor
		}
	}
}

func NewSimulator(session Session, opts ...SimOption) *Simulator {
	s := &Simulator{
		session:   session,
		estimated: EstimateDuration(session.Standard),
		sleep:     sleepContext,
		now:       time.Now,
		speedup:   1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EstimatedDuration is the expected run length in seconds.
func (s *Simulator) EstimatedDuration() int {
	return s.estimated
}

// Run emits progress updates until the run completes or ctx is cancelled.
// On cancellation a final cancelled update is emitted and ctx.Err() returned.
func (s *Simulator) Run(ctx context.Context, emit func(Progress)) error {
	sess := s.session
	start := s.now()
	est := float64(s.estimated)
	last := 0.0

	base := func(status Status, progress float64, pass int, phase string) Progress {
		last = progress
		return Progress{
			WipeID:      sess.WipeID,
			Status:      status,
			Progress:    progress,
			CurrentPass: pass,
			TotalPasses: sess.Passes,
			Phase:       phase,
			Mode:        sess.Mode.Label(),
		}
	}
	elapsed := func() float64 {
		return round1(s.now().Sub(start).Seconds())
	}
	wait := func(seconds float64, pass int) error {
		if err := s.sleep(ctx, s.scaled(seconds)); err != nil {
			emit(s.cancelled(last, pass))
			return err
		}
		return nil
	}

	p := base(StatusInitializing, 0, 0, "Device verification")
	p.EstimatedRemaining = est
	emit(p)
	if err := wait(1, 0); err != nil {
		return err
	}

	p = base(StatusVerifying, 5, 0, "Device verification and preparation")
	p.ElapsedTime = 1
	p.EstimatedRemaining = est - 1
	p.Details = "Verifying device accessibility and preparing secure channels"
	emit(p)
	if err := wait(2, 0); err != nil {
		return err
	}

	p = base(StatusInitializingSecurity, 10, 0, "Security protocol initialization")
	p.ElapsedTime = 3
	p.EstimatedRemaining = est - 3
	p.Details = fmt.Sprintf("Initializing %s security protocols", strings.ToUpper(string(sess.Standard)))
	emit(p)
	if err := wait(2, 0); err != nil {
		return err
	}

	perPass := 80 / float64(sess.Passes)
	for pass := 1; pass <= sess.Passes; pass++ {
		for step := 0; step <= 100; step += 5 {
			if ctx.Err() != nil {
				emit(s.cancelled(last, pass))
				return ctx.Err()
			}
			overall := 10 + float64(pass-1)*perPass + float64(step)*perPass/100
			stepCopy := step
			el := elapsed()

			p = base(StatusWiping, round1(overall), pass, fmt.Sprintf("Data overwrite pass %d/%d", pass, sess.Passes))
			p.PassProgress = &stepCopy
			p.ElapsedTime = el
			p.EstimatedRemaining = math.Max(0, est-el)
			p.Details = PassDetails(sess.Standard, pass, sess.Passes)
			p.Pattern = Pattern(sess.Standard, pass)
			emit(p)

			delay := 0.3 + 0.2*float64(pass)/float64(sess.Passes)
			if err := wait(delay, pass); err != nil {
				return err
			}
		}
	}

	p = base(StatusVerifying, 92, sess.Passes, "Verification and validation")
	p.ElapsedTime = elapsed()
	p.EstimatedRemaining = 5
	p.Details = "Verifying successful data destruction"
	emit(p)
	if err := wait(3, sess.Passes); err != nil {
		return err
	}

	done := s.now().UTC()
	total := elapsed()
	p = base(StatusCompleted, 100, sess.Passes, "Wipe completed successfully")
	p.ElapsedTime = total
	p.Details = "Secure wipe completed - generating certificate"
	p.Completed = true
	p.CompletedAt = &done
	p.Summary = &Summary{
		Standard: strings.ToUpper(string(sess.Standard)),
		Passes:   sess.Passes,
		Mode:     sess.Mode.Label(),
		Duration: total,
		DeviceID: sess.DeviceID,
	}
	emit(p)
	return nil
}

func (s *Simulator) cancelled(progress float64, pass int) Progress {
	at := s.now().UTC()
	return Progress{
		WipeID:      s.session.WipeID,
		Status:      StatusCancelled,
		Progress:    progress,
		CurrentPass: pass,
		TotalPasses: s.session.Passes,
		Phase:       "Operation cancelled by user",
		Mode:        s.session.Mode.Label(),
		Cancelled:   true,
		CancelledAt: &at,
	}
}

func (s *Simulator) scaled(seconds float64) time.Duration {
	return time.Duration(seconds / s.speedup * float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package wipe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
)

// CompletionFunc is called once a run completes and returns a certificate id.
type CompletionFunc func(ctx context.Context, s Session, final Progress) (string, error)

// StartResult is returned when a session is accepted.
type StartResult struct {
	WipeID            string `json:"wipe_id"`
	Status            string `json:"status"`
	Mode              string `json:"mode"`
	EstimatedDuration int    `json:"estimated_duration"`
}

type entry struct {
	session Session
	latest  Progress
	cancel  context.CancelFunc
	done    chan struct{}
}

// Manager runs simulations in the background and keeps their latest progress.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*entry
	limits     Limits
	simOpts    []SimOption
	onComplete CompletionFunc
	real       *RealOperations
	logger     *logging.Logger
	now        func() time.Time
}

type ManagerOption func(*Manager)

func WithLimits(l Limits) ManagerOption {
	return func(m *Manager) { m.limits = l }
}

func WithSimulatorOptions(opts ...SimOption) ManagerOption {
	return func(m *Manager) { m.simOpts = append(m.simOpts, opts...) }
}

func OnComplete(fn CompletionFunc) ManagerOption {
	return func(m *Manager) { m.onComplete = fn }
}

func NewManager(logger *logging.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*entry),
		limits:   DefaultLimits(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.real = NewRealOperations(logger)
	return m
}

// Start validates the request and launches the simulation in the background.
func (m *Manager) Start(req Request) (*StartResult, error) {
	req, err := req.Normalize(m.limits)
	if err != nil {
		return nil, err
	}
	if req.Mode == ModeReal {
		return nil, m.real.MultiPassOverwrite(context.Background(), req.DeviceID, req.Standard, req.Passes)
	}

	sess := Session{
		WipeID:    uuid.NewString(),
		DeviceID:  req.DeviceID,
		Mode:      req.Mode,
		Passes:    req.Passes,
		Standard:  req.Standard,
		StartedAt: m.now().UTC(),
		Status:    StatusInitializing,
	}
	opts := append([]SimOption{WithNow(m.now)}, m.simOpts...)
	sim := NewSimulator(sess, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{
		session: sess,
		latest: Progress{
			WipeID:             sess.WipeID,
			Status:             StatusInitializing,
			TotalPasses:        sess.Passes,
			Mode:               sess.Mode.Label(),
			EstimatedRemaining: float64(sim.EstimatedDuration()),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.sessions[sess.WipeID] = e
	m.mu.Unlock()

	m.logger.Infof("started wipe %s for device %s (%s, %s, %d passes)", sess.WipeID, sess.DeviceID, sess.Mode, sess.Standard, sess.Passes)
	go m.run(ctx, e, sim)

	return &StartResult{
		WipeID:            sess.WipeID,
		Status:            "started",
		Mode:              sess.Mode.Label(),
		EstimatedDuration: sim.EstimatedDuration(),
	}, nil
}

func (m *Manager) run(ctx context.Context, e *entry, sim *Simulator) {
	defer close(e.done)
	defer e.cancel()

	var final Progress
	err := sim.Run(ctx, func(p Progress) {
		final = p
		m.mu.Lock()
		e.latest = p
		e.session.Status = p.Status
		m.mu.Unlock()
	})
	if err != nil {
		m.logger.Infof("wipe %s cancelled", e.session.WipeID)
		return
	}

	m.mu.Lock()
	e.session.CompletedAt = final.CompletedAt
	sess := e.session
	m.mu.Unlock()
	m.logger.Infof("wipe simulation completed for %s", sess.WipeID)

	if m.onComplete == nil {
		return
	}
	certID, err := m.onComplete(context.Background(), sess, final)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.logger.Errorf("certificate for wipe %s failed: %v", sess.WipeID, err)
		e.latest.Error = err.Error()
		return
	}
	e.latest.CertificateID = certID
}

// Progress returns the latest update for a session.
func (m *Manager) Progress(id string) (Progress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return Progress{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e.latest, nil
}

// Session returns the session record.
func (m *Manager) Session(id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e.session, nil
}

// Cancel stops a running session. Cancelling a finished session is a no-op.
func (m *Manager) Cancel(id string) error {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	e.cancel()
	m.logger.Infof("wipe %s cancel requested", id)
	return nil
}

// Wait blocks until the session finishes, including certificate issuance, or ctx ends.
func (m *Manager) Wait(ctx context.Context, id string) (Progress, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return Progress{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	select {
	case <-ctx.Done():
		return Progress{}, ctx.Err()
	case <-e.done:
	}
	return m.Progress(id)
}

// Shutdown cancels every running session and waits for them to stop.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	for _, e := range entries {
		e.cancel()
	}
	for _, e := range entries {
		select {
		case <-e.done:
		case <-ctx.Done():
			return errors.Join(ctx.Err(), fmt.Errorf("wipe %s still running", e.session.WipeID))
		}
	}
	return nil
}

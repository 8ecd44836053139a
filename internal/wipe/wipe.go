package wipe

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrSessionNotFound  = errors.New("wipe session not found")
	ErrRealWipeDisabled = errors.New("real wipe operations are disabled")
	ErrInvalidRequest   = errors.New("invalid wipe request")
)

type Mode string

const (
	ModeSimulation Mode = "simulation"
	ModeDryRun     Mode = "dry-run"
	ModeReal       Mode = "real"
)

// Label is the upper-case form shown in progress updates.
func (m Mode) Label() string {
	return strings.ToUpper(string(m))
}

type Standard string

const (
	StandardNIST    Standard = "nist"
	StandardDoD     Standard = "dod"
	StandardGutmann Standard = "gutmann"
)

// ParseStandard accepts a standard name in any case.
func ParseStandard(name string) (Standard, error) {
	s := Standard(strings.ToLower(strings.TrimSpace(name)))
	if !s.valid() {
		return "", fmt.Errorf("%w: unknown standard %q", ErrInvalidRequest, name)
	}
	return s, nil
}

func (s Standard) valid() bool {
	switch s {
	case StandardNIST, StandardDoD, StandardGutmann:
		return true
	}
	return false
}

type Status string

const (
	StatusInitializing         Status = "initializing"
	StatusVerifying            Status = "verifying"
	StatusInitializingSecurity Status = "initializing_security"
	StatusWiping               Status = "wiping"
	StatusCompleted            Status = "completed"
	StatusCancelled            Status = "cancelled"
	StatusFailed               Status = "failed"
)

// Request asks for a wipe of one device.
type Request struct {
	DeviceID string   `json:"device_id"`
	Mode     Mode     `json:"mode"`
	Passes   int      `json:"passes"`
	Standard Standard `json:"standard"`
}

// Limits carries request defaults and bounds, usually from config.
type Limits struct {
	DefaultStandard Standard
	DefaultPasses   int
	MaxPasses       int
}

// DefaultLimits mirrors the stock configuration.
func DefaultLimits() Limits {
	return Limits{DefaultStandard: StandardDoD, DefaultPasses: 3, MaxPasses: 35}
}

// Normalize fills defaults and validates the request.
func (r Request) Normalize(l Limits) (Request, error) {
	r.DeviceID = strings.TrimSpace(r.DeviceID)
	if r.DeviceID == "" {
		return r, fmt.Errorf("%w: device_id is required", ErrInvalidRequest)
	}

	r.Mode = Mode(strings.ToLower(string(r.Mode)))
	switch r.Mode {
	case "":
		r.Mode = ModeSimulation
	case ModeSimulation, ModeDryRun, ModeReal:
	default:
		return r, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, r.Mode)
	}

	r.Standard = Standard(strings.ToLower(string(r.Standard)))
	if r.Standard == "" {
		r.Standard = l.DefaultStandard
	}
	if !r.Standard.valid() {
		return r, fmt.Errorf("%w: unknown standard %q", ErrInvalidRequest, r.Standard)
	}

	if r.Passes == 0 {
		r.Passes = l.DefaultPasses
	}
	if r.Passes < 1 || r.Passes > l.MaxPasses {
		return r, fmt.Errorf("%w: passes must be between 1 and %d", ErrInvalidRequest, l.MaxPasses)
	}
	return r, nil
}

// Session is one accepted wipe.
type Session struct {
	WipeID      string     `json:"wipe_id"`
	DeviceID    string     `json:"device_id"`
	Mode        Mode       `json:"mode"`
	Passes      int        `json:"passes"`
	Standard    Standard   `json:"standard"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      Status     `json:"status"`
}

// Summary is attached to the final update of a completed run.
type Summary struct {
	Standard string  `json:"standard"`
	Passes   int     `json:"passes"`
	Mode     string  `json:"mode"`
	Duration float64 `json:"duration"`
	DeviceID string  `json:"device_id"`
}

// Progress is a single progress update.
type Progress struct {
	WipeID             string     `json:"wipe_id"`
	Status             Status     `json:"status"`
	Progress           float64    `json:"progress"`
	CurrentPass        int        `json:"current_pass"`
	TotalPasses        int        `json:"total_passes"`
	PassProgress       *int       `json:"pass_progress,omitempty"`
	Phase              string     `json:"phase"`
	ElapsedTime        float64    `json:"elapsed_time"`
	EstimatedRemaining float64    `json:"estimated_remaining"`
	Mode               string     `json:"mode"`
	Details            string     `json:"details,omitempty"`
	Pattern            string     `json:"pattern,omitempty"`
	Completed          bool       `json:"completed,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Cancelled          bool       `json:"cancelled,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	Summary            *Summary   `json:"summary,omitempty"`
	CertificateID      string     `json:"certificate_id,omitempty"`
	Error              string     `json:"error,omitempty"`
}

// Done reports whether no further updates will follow.
func (p Progress) Done() bool {
	switch p.Status {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

package certificate

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
	"github.com/Desire162007/Secure-Wipe/internal/wipe"
)

// ErrNotFound is returned when no certificate has the requested id.
var ErrNotFound = errors.New("certificate not found")

const (
	kdfIterations = 10000
	kdfKeyLen     = 32
)

// Certificate records a completed (simulated) sanitization.
type Certificate struct {
	ID               string    `json:"cert_id"`
	WipeID           string    `json:"wipe_id"`
	DeviceID         string    `json:"device_id"`
	Standard         string    `json:"standard"`
	Passes           int       `json:"passes"`
	Mode             string    `json:"mode"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
	DurationSeconds  float64   `json:"duration_seconds"`
	GeneratedAt      time.Time `json:"generated_at"`
	VerificationCode string    `json:"verification_code"`
}

// canonical is the string the verification code is derived from.
func (c *Certificate) canonical() string {
	return strings.Join([]string{
		c.ID,
		c.WipeID,
		c.DeviceID,
		c.Standard,
		fmt.Sprintf("%d", c.Passes),
		c.Mode,
		c.StartedAt.UTC().Format(time.RFC3339Nano),
		c.CompletedAt.UTC().Format(time.RFC3339Nano),
		fmt.Sprintf("%.1f", c.DurationSeconds),
		c.GeneratedAt.UTC().Format(time.RFC3339Nano),
	}, "|")
}

// Store persists certificates.
type Store interface {
	Save(ctx context.Context, c *Certificate) error
	Get(ctx context.Context, id string) (*Certificate, error)
	List(ctx context.Context) ([]Certificate, error)
}

// Issuer creates, signs and looks up certificates.
type Issuer struct {
	store  Store
	secret []byte
	logger *logging.Logger
	now    func() time.Time
}

func NewIssuer(store Store, secret string, logger *logging.Logger) *Issuer {
	return &Issuer{store: store, secret: []byte(secret), logger: logger, now: time.Now}
}

// Issue builds a certificate for a completed session and stores it.
func (i *Issuer) Issue(ctx context.Context, s wipe.Session, final wipe.Progress) (*Certificate, error) {
	if final.Status != wipe.StatusCompleted {
		return nil, fmt.Errorf("wipe %s is %s, not completed", s.WipeID, final.Status)
	}

	completed := i.now().UTC()
	if final.CompletedAt != nil {
		completed = final.CompletedAt.UTC()
	}
	c := &Certificate{
		ID:              strings.ToUpper(uuid.NewString()[:8]),
		WipeID:          s.WipeID,
		DeviceID:        s.DeviceID,
		Standard:        string(s.Standard),
		Passes:          s.Passes,
		Mode:            s.Mode.Label(),
		StartedAt:       s.StartedAt.UTC(),
		CompletedAt:     completed,
		DurationSeconds: final.ElapsedTime,
		GeneratedAt:     i.now().UTC(),
	}
	c.VerificationCode = i.code(c)

	if err := i.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save certificate: %w", err)
	}
	i.logger.Infof("generated certificate %s for wipe %s", c.ID, c.WipeID)
	return c, nil
}

// Complete adapts Issue to the wipe manager's completion hook.
func (i *Issuer) Complete(ctx context.Context, s wipe.Session, final wipe.Progress) (string, error) {
	c, err := i.Issue(ctx, s, final)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (i *Issuer) Get(ctx context.Context, id string) (*Certificate, error) {
	return i.store.Get(ctx, strings.ToUpper(strings.TrimSpace(id)))
}

func (i *Issuer) List(ctx context.Context) ([]Certificate, error) {
	return i.store.List(ctx)
}

// Verify recomputes the code for c and compares it in constant time.
func (i *Issuer) Verify(c *Certificate) bool {
	want := i.code(c)
	return subtle.ConstantTimeCompare([]byte(want), []byte(c.VerificationCode)) == 1
}

func (i *Issuer) code(c *Certificate) string {
	salt := append(append([]byte{}, i.secret...), c.ID...)
	key := pbkdf2.Key([]byte(c.canonical()), salt, kdfIterations, kdfKeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// StandardName is the long form of a wipe standard.
func StandardName(standard string) string {
	switch strings.ToLower(standard) {
	case "nist":
		return "NIST SP 800-88 Rev. 1 (Single-pass cryptographic erase)"
	case "dod":
		return "DoD 5220.22-M (Three-pass military standard)"
	case "gutmann":
		return "Gutmann 35-Pass (Maximum security overwrite)"
	default:
		return "Custom Standard: " + standard
	}
}

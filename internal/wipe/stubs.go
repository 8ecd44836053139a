package wipe

import (
	"context"
	"fmt"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
)

// RealOperations holds the destructive erase entry points. Every method is
// disabled and returns ErrRealWipeDisabled; nothing here touches a device.
type RealOperations struct {
	logger *logging.Logger
}

func NewRealOperations(logger *logging.Logger) *RealOperations {
	return &RealOperations{logger: logger}
}

// NVMeSecureErase would issue an NVMe format with secure erase settings.
func (r *RealOperations) NVMeSecureErase(_ context.Context, devicePath string) error {
	return r.refuse("nvme secure erase", devicePath)
}

// ATASecureErase would run the ATA security erase sequence.
func (r *RealOperations) ATASecureErase(_ context.Context, devicePath string) error {
	return r.refuse("ata secure erase", devicePath)
}

// MultiPassOverwrite would write each pass of OverwritePlan to the block device.
func (r *RealOperations) MultiPassOverwrite(_ context.Context, devicePath string, standard Standard, passes int) error {
	return r.refuse(fmt.Sprintf("%d-pass %s overwrite", passes, standard), devicePath)
}

func (r *RealOperations) refuse(op, devicePath string) error {
	r.logger.Warnf("refused %s on %s: real operations are disabled", op, devicePath)
	return fmt.Errorf("%s on %s: %w", op, devicePath, ErrRealWipeDisabled)
}

// OverwritePass is one step of an overwrite plan.
type OverwritePass struct {
	Pass    int    `json:"pass"`
	Pattern string `json:"pattern"`
	Source  string `json:"source"`
}

// OverwritePlan lists the passes a real overwrite would perform. It is only used for display.
// A non-positive pass count yields an empty plan.
func OverwritePlan(standard Standard, passes int) []OverwritePass {
	if passes < 1 {
		return nil
	}
	plan := make([]OverwritePass, 0, passes)
	for i := 1; i <= passes; i++ {
		pattern := Pattern(standard, i)
		plan = append(plan, OverwritePass{Pass: i, Pattern: pattern, Source: patternSource(pattern)})
	}
	return plan
}

func patternSource(pattern string) string {
	switch pattern {
	case "0x00":
		return "/dev/zero"
	case "Random", "Cryptographic Random":
		return "/dev/urandom"
	default:
		return "fill " + pattern
	}
}

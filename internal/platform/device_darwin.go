//go:build darwin
// +build darwin

package platform

import (
	"context"
	"os/exec"

	"github.com/Desire162007/Secure-Wipe/internal/logging"
)

func detectNativeProvider() bool {
	_, err := exec.LookPath("diskutil")
	return err == nil
}

func nativeEnricher(logger *logging.Logger) Enricher {
	return newDiskutilEnricher(runDiskutilInfo, checkDiskutil, logger)
}

func checkDiskutil(context.Context) error {
	_, err := exec.LookPath("diskutil")
	return err
}

func runDiskutilInfo(ctx context.Context, devicePath string) ([]byte, error) {
	return exec.CommandContext(ctx, "diskutil", "info", "-plist", devicePath).Output()
}

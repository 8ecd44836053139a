//go:build !linux && !windows && !darwin
// +build !linux,!windows,!darwin

package platform

import "github.com/Desire162007/Secure-Wipe/internal/logging"

func detectNativeProvider() bool {
	return false
}

func nativeEnricher(*logging.Logger) Enricher {
	return NoopEnricher{}
}

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
)

// MachineFingerprint derives a stable, non-reversible identifier for the host.
// Only the first 16 hex characters of the digest are kept.
func MachineFingerprint() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown-host"
	}
	return FingerprintOf(hostname, runtime.GOOS, runtime.GOARCH)
}

// FingerprintOf hashes the host triple into a 16 character identifier
func FingerprintOf(hostname, goos, goarch string) string {
	raw := fmt.Sprintf("%s-%s-%s", hostname, goos, goarch)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

package session

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint is the form of a browser id that may be written to logs. The
// sid itself authenticates the browser and must never leave the process.
func Fingerprint(sid string) string {
	if sid == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(sid))
	return hex.EncodeToString(sum[:6])
}

// Package idhash computes deterministic record IDs so that re-running an
// evaluation or re-importing a feed never creates duplicate rows.
package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// AnchorID computes a deterministic daily anchor ID.
// Formula: base58(SHA256("anchor|" + phase_account_id + "|" + day)).
func AnchorID(phaseAccountID, day string) string {
	return hashID(fmt.Sprintf("anchor|%s|%s", phaseAccountID, day))
}

// BreachID computes a deterministic breach record ID. One breach per
// (phase, type, day) is representable; repeated detection of the same
// breach collides on purpose.
func BreachID(phaseAccountID, breachType, day string) string {
	return hashID(fmt.Sprintf("breach|%s|%s|%s", phaseAccountID, breachType, day))
}

// TradeID computes a deterministic trade ID for ingested fills that arrive
// without a platform-assigned ID.
// Formula: base58(SHA256("trade|" + phase_account_id + "|" + exit_time_ms + "|" + seq)).
func TradeID(phaseAccountID string, exitTimeMs int64, seq int) string {
	return hashID(fmt.Sprintf("trade|%s|%d|%d", phaseAccountID, exitTimeMs, seq))
}

func hashID(data string) string {
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}

// Package proof implements the proving pipeline: building the guest's
// public-outputs journal, invoking a pluggable Backend to produce a proof,
// and re-deriving every journal field host-side before accepting it.
package proof

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// JournalSize is the fixed byte length of the public-outputs journal. The
// layout is a wire contract: any change to field order, width, or
// encoding breaks every proof produced against the previous version.
//
//	oracle_root      [32]byte @0
//	seed_commitment  [32]byte @32
//	prev_state_root  [32]byte @64
//	actions_root     [32]byte @96
//	new_state_root   [32]byte @128
//	new_nonce        uint64 little-endian @160
const JournalSize = 168

// Journal is the decoded form of the guest's public outputs.
type Journal struct {
	OracleRoot     [32]byte
	SeedCommitment [32]byte
	PrevStateRoot  [32]byte
	ActionsRoot    [32]byte
	NewStateRoot   [32]byte
	NewNonce       uint64
}

// BuildJournal encodes j into its fixed 168-byte layout.
func BuildJournal(j Journal) [JournalSize]byte {
	var buf [JournalSize]byte
	copy(buf[0:32], j.OracleRoot[:])
	copy(buf[32:64], j.SeedCommitment[:])
	copy(buf[64:96], j.PrevStateRoot[:])
	copy(buf[96:128], j.ActionsRoot[:])
	copy(buf[128:160], j.NewStateRoot[:])
	binary.LittleEndian.PutUint64(buf[160:168], j.NewNonce)
	return buf
}

// ParseJournal decodes a 168-byte journal buffer.
func ParseJournal(buf []byte) (Journal, error) {
	if len(buf) != JournalSize {
		return Journal{}, fmt.Errorf("proof: journal must be %d bytes, got %d", JournalSize, len(buf))
	}
	var j Journal
	copy(j.OracleRoot[:], buf[0:32])
	copy(j.SeedCommitment[:], buf[32:64])
	copy(j.PrevStateRoot[:], buf[64:96])
	copy(j.ActionsRoot[:], buf[96:128])
	copy(j.NewStateRoot[:], buf[128:160])
	j.NewNonce = binary.LittleEndian.Uint64(buf[160:168])
	return j, nil
}

// Digest returns the SHA-256 digest of the journal's byte encoding — the
// value a Backend actually proves knowledge of. SHA-256 is used here
// (rather than canonical.go's MiMC) because SHA-256 is what the journal
// format is specified against. The digest itself is never recomputed inside
// a circuit: Groth16Backend only takes its 32 bytes as public inputs.
func Digest(j Journal) [32]byte {
	buf := BuildJournal(j)
	return sha256.Sum256(buf[:])
}

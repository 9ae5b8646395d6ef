// Package verifier implements the two-stage check a proof artifact must
// pass before a session accepts it: a backend-specific cryptographic check,
// followed by host-side recomputation and domain checks against the
// session's own bookkeeping. Grounded on consensus.PoA.ValidateBlock's
// shape — structural/signature checks first, then domain checks against
// local chain state — generalized from block acceptance to proof
// acceptance.
package verifier

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/0xwonj/dungeon/proof"
)

// Session holds the state a verifier checks submitted artifacts against:
// the oracle content this session is bound to, and the most recently
// accepted state_root/nonce. A Session is not safe for concurrent use; the
// orchestrator that owns proof acceptance should serialize calls to Verify
// the same way runtime.Simulation serializes GameState mutation.
type Session struct {
	oracleRoot [32]byte
	stateRoot  [32]byte
	nonce      uint64

	backend proof.Backend
}

// NewSession starts a verifier bound to oracleRoot, with the session's
// initial state_root (the genesis GameState's root) and nonce 0.
func NewSession(backend proof.Backend, oracleRoot, initialStateRoot [32]byte) *Session {
	return &Session{oracleRoot: oracleRoot, stateRoot: initialStateRoot, backend: backend}
}

// StateRoot returns the state_root this session currently considers
// canonical.
func (s *Session) StateRoot() [32]byte { return s.stateRoot }

// Nonce returns the highest actor nonce this session has accepted.
func (s *Session) Nonce() uint64 { return s.nonce }

// Artifact bundles a proof Receipt with the journal it was produced for —
// everything Verify needs from a single submission.
type Artifact struct {
	Receipt proof.Receipt
	Journal proof.Journal
}

// Verify runs the two-stage check against art and, on success, advances
// the session's recorded state_root and nonce. Stage 1 asks the backend to
// verify the receipt's cryptographic validity against the digest this
// function computes from the journal; stage 2 checks oracle_root,
// prev_state_root and new_nonce against this session's own bookkeeping,
// so a backend bug that accepts a mismatched digest cannot smuggle in a
// transition from the wrong oracle, the wrong prior state, or a stale
// nonce. seed_commitment and actions_root are not checked.
// Returns (false, reason) without mutating session state on any failure.
func (s *Session) Verify(art Artifact) (bool, string) {
	digest := proof.Digest(art.Journal)

	ok, err := s.backend.Verify(art.Receipt, digest)
	if err != nil {
		return false, fmt.Sprintf("backend verify error: %v", err)
	}
	if !ok {
		return false, "backend rejected proof"
	}

	if art.Journal.OracleRoot != s.oracleRoot {
		return false, "oracle_root does not match session"
	}
	if art.Journal.PrevStateRoot != s.stateRoot {
		return false, "prev_state_root does not match session's recorded state_root"
	}
	if art.Journal.NewNonce <= s.nonce {
		return false, "new_nonce does not advance past the session's recorded nonce"
	}

	s.stateRoot = art.Journal.NewStateRoot
	s.nonce = art.Journal.NewNonce

	log.Info().
		Uint64("nonce", s.nonce).
		Str("state_root", fmt.Sprintf("%x", s.stateRoot)).
		Msg("proof artifact accepted")

	return true, ""
}

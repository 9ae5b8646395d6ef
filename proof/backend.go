package proof

import "bytes"

// Receipt is an opaque backend-produced proof artifact: whatever bytes the
// chosen Backend needs to later convince a Verifier it holds a valid proof
// over a given digest. Its internal shape is backend-specific; proof/ and
// verifier/ only ever move it around and hand it back to the same Backend.
type Receipt struct {
	Backend string
	Data    []byte
}

// Backend is the pluggable proving backend. Prover calls Prove once per
// batch; verifier.Session calls Verify once per submitted artifact. Neither
// caller depends on which Backend is wired in, which is what lets
// StubBackend stand in for Groth16Backend (or a future real zkVM backend)
// without touching engine/, proof/prover.go, or verifier/.
type Backend interface {
	Prove(digest [32]byte) (Receipt, error)
	Verify(receipt Receipt, digest [32]byte) (bool, error)
}

// StubBackend proves nothing cryptographically; it round-trips the digest
// so the rest of the pipeline — batching, journal verification, the
// verifier's two-stage check — can be exercised end-to-end before a
// production backend is wired in. This is the default Backend.
type StubBackend struct{}

// Prove implements Backend.
func (StubBackend) Prove(digest [32]byte) (Receipt, error) {
	return Receipt{Backend: "stub", Data: append([]byte(nil), digest[:]...)}, nil
}

// Verify implements Backend.
func (StubBackend) Verify(receipt Receipt, digest [32]byte) (bool, error) {
	if receipt.Backend != "stub" {
		return false, nil
	}
	return bytes.Equal(receipt.Data, digest[:]), nil
}

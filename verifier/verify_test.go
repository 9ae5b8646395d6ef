package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xwonj/dungeon/proof"
)

func TestSessionVerify_AcceptsAdvancingJournal(t *testing.T) {
	backend := proof.StubBackend{}
	oracleRoot := [32]byte{1}
	initialRoot := [32]byte{2}

	s := NewSession(backend, oracleRoot, initialRoot)

	journal := proof.Journal{
		OracleRoot:    oracleRoot,
		PrevStateRoot: initialRoot,
		NewStateRoot:  [32]byte{3},
		NewNonce:      1,
	}
	digest := proof.Digest(journal)
	receipt, err := backend.Prove(digest)
	require.NoError(t, err)

	ok, reason := s.Verify(Artifact{Receipt: receipt, Journal: journal})
	require.True(t, ok, reason)
	assert.Equal(t, journal.NewStateRoot, s.StateRoot())
	assert.Equal(t, uint64(1), s.Nonce())
}

func TestSessionVerify_RejectsStalePrevStateRoot(t *testing.T) {
	backend := proof.StubBackend{}
	oracleRoot := [32]byte{1}
	initialRoot := [32]byte{2}
	s := NewSession(backend, oracleRoot, initialRoot)

	journal := proof.Journal{
		OracleRoot:    oracleRoot,
		PrevStateRoot: [32]byte{9}, // does not match session's recorded root
		NewStateRoot:  [32]byte{3},
		NewNonce:      1,
	}
	digest := proof.Digest(journal)
	receipt, err := backend.Prove(digest)
	require.NoError(t, err)

	ok, reason := s.Verify(Artifact{Receipt: receipt, Journal: journal})
	assert.False(t, ok)
	assert.NotEmpty(t, reason)
	assert.Equal(t, initialRoot, s.StateRoot(), "session state must not advance on a failed verification")
}

func TestSessionVerify_RejectsNonAdvancingNonce(t *testing.T) {
	backend := proof.StubBackend{}
	oracleRoot := [32]byte{1}
	initialRoot := [32]byte{2}
	s := NewSession(backend, oracleRoot, initialRoot)

	journal := proof.Journal{
		OracleRoot:    oracleRoot,
		PrevStateRoot: initialRoot,
		NewStateRoot:  [32]byte{3},
		NewNonce:      0, // must strictly advance past session.nonce (0)
	}
	digest := proof.Digest(journal)
	receipt, err := backend.Prove(digest)
	require.NoError(t, err)

	ok, _ := s.Verify(Artifact{Receipt: receipt, Journal: journal})
	assert.False(t, ok)
}

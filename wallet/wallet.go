package wallet

import (
	"github.com/0xwonj/dungeon/crypto"
	"github.com/0xwonj/dungeon/engine"
)

// Wallet holds a key pair and signs the player's actions before they're
// submitted to a session. Generalized from transaction signing: a
// session's actions are the unit authenticated on the wire, in place of
// a ledger transaction.
type Wallet struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public()}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate() (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// PubKey returns the hex-encoded ed25519 public key.
func (w *Wallet) PubKey() string {
	return w.pub.Hex()
}

// Address returns the short human-readable address (first 20 bytes of SHA-256(pubkey)).
func (w *Wallet) Address() string {
	return w.pub.Address()
}

// SignedAction pairs an action with the signature over its canonical
// encoding. runtime.ChannelProvider carries plain engine.Action values and
// checks no signature; VerifySigned is the only check of a SignedAction.
type SignedAction struct {
	Action    engine.Action
	PubKey    string
	Signature string
}

// Sign produces a SignedAction over action's canonical encoding
// (engine.CanonicalAction), so the signature covers exactly the bytes the
// proving pipeline hashes into actions_root.
func (w *Wallet) Sign(action engine.Action) SignedAction {
	return SignedAction{
		Action:    action,
		PubKey:    w.pub.Hex(),
		Signature: crypto.Sign(w.priv, engine.CanonicalAction(action)),
	}
}

// VerifySigned checks that signed.Signature is a valid signature by
// signed.PubKey over signed.Action's canonical encoding.
func VerifySigned(signed SignedAction) error {
	pub, err := crypto.PubKeyFromHex(signed.PubKey)
	if err != nil {
		return err
	}
	return crypto.Verify(pub, engine.CanonicalAction(signed.Action), signed.Signature)
}

package proof

import (
	"bytes"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// digestCircuit is the thinnest real Groth16 circuit that exercises the
// journal digest as a public input: it asserts nothing beyond the witness
// being well-formed field elements. Production backends replace this with
// a circuit that actually re-executes engine.Reduce in-circuit; that
// reimplementation is deliberately out of scope here, so this circuit
// exists only to demonstrate the concrete wiring point such a backend
// plugs into.
type digestCircuit struct {
	Digest [32]frontend.Variable `gnark:",public"`
}

func (c *digestCircuit) Define(api frontend.API) error {
	for _, b := range c.Digest {
		api.AssertIsEqual(b, b)
	}
	return nil
}

// Groth16Backend proves and verifies journal digests with a Groth16 SNARK
// over BN254, grounded on certenIO-certen-validator's gnark dependency —
// the one pack manifest naming github.com/consensys/gnark directly. Setup
// runs once at construction; Prove/Verify reuse the same proving/verifying
// key for every call, matching how a production circuit would be deployed
// against a fixed verifying key.
type Groth16Backend struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// NewGroth16Backend compiles digestCircuit and runs a (non-production,
// insecure) local trusted setup. A production deployment loads pk/vk from
// a ceremony artifact instead of generating them in-process; that
// integration point is exactly what this constructor stands in for.
func NewGroth16Backend() (*Groth16Backend, error) {
	var circuit digestCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("proof: compile groth16 circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("proof: groth16 setup: %w", err)
	}
	return &Groth16Backend{ccs: ccs, pk: pk, vk: vk}, nil
}

// Prove implements Backend.
func (b *Groth16Backend) Prove(digest [32]byte) (Receipt, error) {
	assignment := digestAssignment(digest)
	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		return Receipt{}, fmt.Errorf("proof: build witness: %w", err)
	}
	proof, err := groth16.Prove(b.ccs, b.pk, witness)
	if err != nil {
		return Receipt{}, fmt.Errorf("proof: groth16 prove: %w", err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return Receipt{}, fmt.Errorf("proof: encode groth16 proof: %w", err)
	}
	return Receipt{Backend: "groth16", Data: buf.Bytes()}, nil
}

// Verify implements Backend.
func (b *Groth16Backend) Verify(receipt Receipt, digest [32]byte) (bool, error) {
	if receipt.Backend != "groth16" {
		return false, nil
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(receipt.Data)); err != nil {
		return false, fmt.Errorf("proof: decode groth16 proof: %w", err)
	}
	assignment := digestAssignment(digest)
	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("proof: build public witness: %w", err)
	}
	if err := groth16.Verify(proof, b.vk, witness); err != nil {
		return false, nil
	}
	return true, nil
}

func digestAssignment(digest [32]byte) digestCircuit {
	var c digestCircuit
	for i, b := range digest {
		c.Digest[i] = b
	}
	return c
}

package service

import (
	"encoding/json"

	"github.com/iden3/go-rapidsnark/types"
	rapidsnark "github.com/iden3/go-rapidsnark/verifier"

	dErrors "proofgate/pkg/domain-errors"
)

// vkJSON mirrors the groth16 verification key layout for structural
// validation. The cryptographic interpretation of the fields is left to the
// checker.
type vkJSON struct {
	Protocol string     `json:"protocol"`
	Alpha    []string   `json:"vk_alpha_1"`
	Beta     [][]string `json:"vk_beta_2"`
	Gamma    [][]string `json:"vk_gamma_2"`
	Delta    [][]string `json:"vk_delta_2"`
	IC       [][]string `json:"IC"`
}

// ValidateKeyStructure checks that key bytes decode to a plausible groth16
// verification key. Returns invalid_key on any structural defect.
func ValidateKeyStructure(keyBytes []byte) error {
	var vk vkJSON
	if err := json.Unmarshal(keyBytes, &vk); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidKey, "verification key is not valid JSON")
	}
	if vk.Protocol != "" && vk.Protocol != "groth16" {
		return dErrors.New(dErrors.CodeInvalidKey, "unsupported proving protocol: "+vk.Protocol)
	}
	if len(vk.Alpha) == 0 || len(vk.Beta) == 0 || len(vk.Gamma) == 0 || len(vk.Delta) == 0 {
		return dErrors.New(dErrors.CodeInvalidKey, "verification key is missing curve points")
	}
	if len(vk.IC) == 0 {
		return dErrors.New(dErrors.CodeInvalidKey, "verification key has no public input commitments")
	}
	return nil
}

// ValidateProofStructure checks that proof bytes decode to a groth16 proof.
// Returns malformed_proof on any structural defect; no leniency or
// auto-detection is applied.
func ValidateProofStructure(proofBytes []byte) error {
	var proof types.ProofData
	if err := json.Unmarshal(proofBytes, &proof); err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedProof, "proof is not valid JSON")
	}
	if len(proof.A) == 0 || len(proof.B) == 0 || len(proof.C) == 0 {
		return dErrors.New(dErrors.CodeMalformedProof, "proof is missing curve points")
	}
	if proof.Protocol != "" && proof.Protocol != "groth16" {
		return dErrors.New(dErrors.CodeMalformedProof, "unsupported proving protocol: "+proof.Protocol)
	}
	return nil
}

// DecodePublicInputs decodes the opaque public input bytes into the signal
// list the checker expects: a JSON array of decimal strings.
func DecodePublicInputs(publicInputs []byte) ([]string, error) {
	var signals []string
	if err := json.Unmarshal(publicInputs, &signals); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedProof, "public inputs are not a JSON string array")
	}
	return signals, nil
}

// Groth16Checker verifies groth16 proofs via rapidsnark.
type Groth16Checker struct{}

// NewGroth16Checker returns the production proof checker.
func NewGroth16Checker() *Groth16Checker {
	return &Groth16Checker{}
}

// Check runs the pairing check. Structural validation is the caller's
// concern; any error here means the proof is cryptographically invalid.
func (c *Groth16Checker) Check(verificationKey, proof []byte, publicInputs []string) error {
	var proofData types.ProofData
	if err := json.Unmarshal(proof, &proofData); err != nil {
		return err
	}
	return rapidsnark.VerifyGroth16(types.ZKProof{
		Proof:      &proofData,
		PubSignals: publicInputs,
	}, verificationKey)
}

var _ Checker = (*Groth16Checker)(nil)

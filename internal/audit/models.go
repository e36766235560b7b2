package audit

import (
	"time"

	"proofgate/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Actor     domain.Address `json:"actor"`
	Action    Action         `json:"action"`
	Subject   string         `json:"subject"`
	Decision  string         `json:"decision"`
	Reason    string         `json:"reason,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// Action tags the lifecycle event. Proof-gated issuance and admin direct
// mints use distinct actions so degraded-mode issuance is always
// distinguishable in the trail.
type Action string

const (
	ActionCredentialIssued      Action = "credential_issued"
	ActionCredentialAdminMinted Action = "credential_admin_minted"
	ActionProofRejected         Action = "proof_rejected"
	ActionMintFailedAfterVerify Action = "mint_failed_after_verify"
	ActionKeyRegistered         Action = "key_registered"
	ActionConfigUpdated         Action = "config_updated"
	ActionCredentialTransferred Action = "credential_transferred"
)

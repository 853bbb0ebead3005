package enums

import "fmt"

// ProofStatus tracks the artwork approval workflow for a line item.
type ProofStatus string

const (
	ProofStatusPending          ProofStatus = "pending"
	ProofStatusAwaitingApproval ProofStatus = "awaiting_approval"
	ProofStatusApproved         ProofStatus = "approved"
	ProofStatusChangesRequested ProofStatus = "changes_requested"
)

var validProofStatuses = []ProofStatus{
	ProofStatusPending,
	ProofStatusAwaitingApproval,
	ProofStatusApproved,
	ProofStatusChangesRequested,
}

// String implements fmt.Stringer.
func (s ProofStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProofStatus.
func (s ProofStatus) IsValid() bool {
	for _, candidate := range validProofStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProofStatus converts raw input into a ProofStatus.
func ParseProofStatus(value string) (ProofStatus, error) {
	for _, candidate := range validProofStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid proof status %q", value)
}

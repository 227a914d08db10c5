package models

// AcceptanceState is the moderation state of a question.
// A question with no acceptance flag is StatePending.
type AcceptanceState string

const (
	StatePending  AcceptanceState = "PENDING"
	StateAccepted AcceptanceState = "ACCEPTED"
	StateRejected AcceptanceState = "REJECTED"
)

// Decision is a moderator's verdict on a question
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Valid reports whether d is a known decision
func (d Decision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

// Accepted converts the decision to the stored is_accepted value
func (d Decision) Accepted() bool {
	return d == DecisionAccept
}

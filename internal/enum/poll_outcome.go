package enum

// PollOutcome is the terminal state of one pipeline invocation.
type PollOutcome string

const (
	PollOutcomeNoMessages       PollOutcome = "no-messages"
	PollOutcomeInitialized      PollOutcome = "initialized"
	PollOutcomeAlreadyProcessed PollOutcome = "already-processed"
	PollOutcomeRelayed          PollOutcome = "relayed"
	PollOutcomeFailed           PollOutcome = "failed"
)

func (o PollOutcome) String() string {
	return string(o)
}

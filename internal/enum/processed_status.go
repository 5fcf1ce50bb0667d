package enum

type ProcessedStatus string

const (
	ProcessedStatusSent               ProcessedStatus = "sent"
	ProcessedStatusError              ProcessedStatus = "error"
	ProcessedStatusInitializationSkip ProcessedStatus = "initialization-skip"
)

func (s ProcessedStatus) String() string {
	return string(s)
}

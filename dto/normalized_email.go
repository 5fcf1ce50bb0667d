package dto

type NormalizedEmail struct {
	MessageId   string `json:"messageId"`
	ThreadId    string `json:"threadId,omitempty"`
	From        string `json:"from"`
	FromAddress string `json:"fromAddress"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Date        string `json:"date"`
	Body        string `json:"body"`
	Snippet     string `json:"snippet,omitempty"`
}

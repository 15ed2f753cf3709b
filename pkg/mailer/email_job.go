package mailer

import "strings"

// EmailJob is what QueueNotifier publishes and JobHandler consumes. A job carries either a
// ready message (Subject plus Text and/or HTML) or a Template name with its Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func (j EmailJob) hasRecipient() bool { return strings.TrimSpace(j.To) != "" }

// templateData returns Data with RecipientEmail filled from To when the caller left it out.
func (j EmailJob) templateData() map[string]any {
	data := make(map[string]any, len(j.Data)+1)
	for k, v := range j.Data {
		data[k] = v
	}
	if _, ok := data["RecipientEmail"]; !ok {
		data["RecipientEmail"] = j.To
	}
	return data
}

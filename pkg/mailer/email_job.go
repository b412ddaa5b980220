package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (+ Data) or Subject with Text/HTML is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "welcome" or "cancellation"
	Data     map[string]any `json:"data,omitempty"`
}

// EnsureRecipient fills Data["Email"] from To when the producer left it out.
func (j *EmailJob) EnsureRecipient() {
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	if v, ok := j.Data["Email"].(string); !ok || v == "" {
		j.Data["Email"] = j.To
	}
}

package mailer

import "fmt"

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template+Data or Subject with Text/HTML is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "welcome" or "signin_notification"
	Data     map[string]any `json:"data,omitempty"`
}

// EnsureRecipient fills Data.Email from To so templates can always greet the recipient.
func (j *EmailJob) EnsureRecipient() {
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	if v, ok := j.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		j.Data["Email"] = j.To
	}
}

// Valid reports whether the job carries something renderable.
func (j *EmailJob) Valid() bool {
	if j.To == "" {
		return false
	}
	if j.Template != "" {
		return true
	}
	return j.Subject != "" && (j.Text != "" || j.HTML != "")
}

package mailer

import (
	"context"
	"errors"

	mailtpl "github.com/oksasatya/clinical-monitor/pkg/mailer/templates"
)

// ErrInvalidJob marks a job that can never be sent; consumers should drop it instead of requeueing.
var ErrInvalidJob = errors.New("invalid email job")

// Deliver renders job (when it names a template) and hands it to s.
func Deliver(ctx context.Context, s Sender, job EmailJob) error {
	if !job.Valid() {
		return ErrInvalidJob
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		job.EnsureRecipient()
		var err error
		subject, text, html, err = mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return errors.Join(ErrInvalidJob, err)
		}
	}
	return s.Send(ctx, job.To, subject, text, html)
}

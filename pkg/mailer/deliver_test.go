package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailtpl "github.com/oksasatya/clinical-monitor/pkg/mailer/templates"
)

type sentMail struct{ to, subject, text, html string }

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, text, html})
	return nil
}

func TestDeliver_Template(t *testing.T) {
	s := &fakeSender{}
	job := EmailJob{To: "jane@x.com", Template: mailtpl.Welcome, Data: map[string]any{"Name": "Jane", "Username": "jane", "AppName": "clinical-monitor"}}

	require.NoError(t, Deliver(context.Background(), s, job))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "jane@x.com", s.sent[0].to)
	assert.Equal(t, "Welcome to clinical-monitor", s.sent[0].subject)
	assert.Contains(t, s.sent[0].html, "Welcome, Jane")
}

func TestDeliver_Raw(t *testing.T) {
	s := &fakeSender{}
	require.NoError(t, Deliver(context.Background(), s, EmailJob{To: "a@x.com", Subject: "hi", Text: "body"}))
	assert.Equal(t, "body", s.sent[0].text)
}

func TestDeliver_InvalidJobs(t *testing.T) {
	s := &fakeSender{}
	assert.ErrorIs(t, Deliver(context.Background(), s, EmailJob{Subject: "no recipient", Text: "x"}), ErrInvalidJob)
	assert.ErrorIs(t, Deliver(context.Background(), s, EmailJob{To: "a@x.com"}), ErrInvalidJob)
	assert.ErrorIs(t, Deliver(context.Background(), s, EmailJob{To: "a@x.com", Template: "nope"}), ErrInvalidJob)
	assert.Empty(t, s.sent)
}

func TestDeliver_SenderErrorIsRetryable(t *testing.T) {
	s := &fakeSender{err: errors.New("mailgun 503")}
	err := Deliver(context.Background(), s, EmailJob{To: "a@x.com", Subject: "hi", Text: "body"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidJob)
}

func TestEnsureRecipient(t *testing.T) {
	job := EmailJob{To: "a@x.com"}
	job.EnsureRecipient()
	assert.Equal(t, "a@x.com", job.Data["Email"])

	job = EmailJob{To: "a@x.com", Data: map[string]any{"Email": "b@x.com"}}
	job.EnsureRecipient()
	assert.Equal(t, "b@x.com", job.Data["Email"])
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	s := &fakeSender{}

	out, err := Process(ctx, s, []byte(`{"to":"a@x.com","subject":"hi","text":"body"}`))
	require.NoError(t, err)
	assert.Equal(t, Ack, out)
	assert.Len(t, s.sent, 1)

	out, err = Process(ctx, s, []byte(`{not json`))
	assert.Error(t, err)
	assert.Equal(t, Drop, out)

	out, _ = Process(ctx, s, []byte(`{"to":"a@x.com","template":"unknown"}`))
	assert.Equal(t, Drop, out)

	s.err = errors.New("mailgun 503")
	out, err = Process(ctx, s, []byte(`{"to":"a@x.com","subject":"hi","text":"body"}`))
	assert.Error(t, err)
	assert.Equal(t, Requeue, out)
	assert.Equal(t, "requeue", out.String())
}

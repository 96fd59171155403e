package mailer

import (
	"context"
	"encoding/json"
	"errors"
)

// Outcome tells the queue consumer what to do with a delivery.
type Outcome int

const (
	Ack     Outcome = iota // sent
	Drop                   // never sendable, do not requeue
	Requeue                // transient failure
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Drop:
		return "drop"
	default:
		return "requeue"
	}
}

// Process decodes one queued job and delivers it.
func Process(ctx context.Context, s Sender, body []byte) (Outcome, error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return Drop, err
	}
	if err := Deliver(ctx, s, job); err != nil {
		if errors.Is(err, ErrInvalidJob) {
			return Drop, err
		}
		return Requeue, err
	}
	return Ack, nil
}

package natsgath

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/programme-lv/grader/internal/gatherer/eventgath"
	"github.com/programme-lv/grader/internal/pipeline"
)

// Publisher is the part of *nats.Conn the gatherer needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// New streams pipeline events to subject. Publishing failures are logged.
func New(nc Publisher, subject string, log *slog.Logger) pipeline.Gatherer {
	return eventgath.New(func(msg any) {
		b, err := json.Marshal(msg)
		if err != nil {
			log.Error("failed to marshal event", "err", err)
			return
		}
		if err := nc.Publish(subject, b); err != nil {
			log.Warn("failed to publish event to NATS", "subject", subject, "err", err)
		}
	})
}

// Connect dials the server and returns the gatherer together with a close
// function that flushes pending events.
func Connect(url string, subject string, log *slog.Logger) (pipeline.Gatherer, func(), error) {
	nc, err := nats.Connect(url, nats.Name("grader"))
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := nc.Drain(); err != nil {
			log.Warn("failed to drain NATS connection", "err", err)
		}
	}
	return New(nc, subject, log), closeFn, nil
}

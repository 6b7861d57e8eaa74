// Package loader fetches the books payload and hands it to the table.
//
// Fetching is kept outside the table controller: a failed fetch is logged
// here and the controller never sees it, so the current table stays as is.
package loader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/booktable/internal/domain"
	domainerrors "github.com/listenupapp/booktable/internal/errors"
)

// Target receives fetched payloads. *booktable.Controller implements it.
type Target interface {
	Load(payload domain.Payload) error
}

// Status describes the last load attempt.
type Status struct {
	LastAttempt time.Time `json:"last_attempt"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	Source      string    `json:"source"`
}

// Loader fetches from a Source into a Target.
type Loader struct {
	source Source
	target Target
	logger *slog.Logger
	now    func() time.Time

	loadMu sync.Mutex // serializes loads
	mu     sync.Mutex // guards status
	status Status
}

// New creates a loader.
func New(source Source, target Target, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		source: source,
		target: target,
		logger: logger,
		now:    time.Now,
		status: Status{Source: source.String()},
	}
}

// Load fetches the payload and passes it to the target.
//
// Fetch failures are logged and returned as SOURCE_UNAVAILABLE (or
// MALFORMED_PAYLOAD when the document is not JSON); the target is not called.
func (l *Loader) Load(ctx context.Context) error {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	attempt := l.now()

	payload, err := l.source.Fetch(ctx)
	if err != nil {
		if !domainerrors.Is(err, domainerrors.ErrMalformedPayload) && !domainerrors.Is(err, domainerrors.ErrSourceUnavailable) {
			err = domainerrors.Wrapf(err, domainerrors.CodeSourceUnavailable, "fetch %s", l.source)
		}
		l.logger.Warn("Book source unavailable", "source", l.source.String(), "error", err)
		l.record(attempt, err)
		return err
	}

	err = l.target.Load(payload)
	l.record(attempt, err)
	return err
}

func (l *Loader) record(attempt time.Time, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.status.LastAttempt = attempt
	if err != nil {
		l.status.LastError = err.Error()
		return
	}
	l.status.LastSuccess = attempt
	l.status.LastError = ""
}

// Source returns the configured source.
func (l *Loader) Source() Source {
	return l.source
}

// Status returns the outcome of the last load.
func (l *Loader) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

package repository

import (
	"context"
	"fmt"

	"irrigation/entities"
)

// IrrigationRepository is the remote service's REST API.
type IrrigationRepository interface {
	Create(ctx context.Context, p entities.IrrigationPayload) error
	Update(ctx context.Context, id string, p entities.IrrigationPayload) error
	Delete(ctx context.Context, id string) error
}

// TransportError is a REST call that failed on the network or returned a
// non-2xx status. The call can be retried as is.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

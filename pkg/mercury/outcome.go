package mercury

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Outcome classifies the result of one Mercury fetch. The reconciliation
// engine depends on this classification only, never on raw HTTP codes.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotFound
	OutcomeForbidden
	OutcomeUnpublished
	OutcomeUpstreamUnavailable
	OutcomeTimeout
	OutcomeTransportError
	OutcomeEmptyResponse
)

// String returns a short label for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeUnpublished:
		return "unpublished"
	case OutcomeUpstreamUnavailable:
		return "upstream_unavailable"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeEmptyResponse:
		return "empty_response"
	default:
		return "unknown"
	}
}

// FetchError is a classified Mercury fetch failure.
type FetchError struct {
	Outcome Outcome
	Kind    Kind
	ID      string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mercury %s %s: %s: %v", e.Kind, e.ID, e.Outcome, e.Err)
	}
	return fmt.Sprintf("mercury %s %s: %s", e.Kind, e.ID, e.Outcome)
}

func (e *FetchError) Unwrap() error { return e.Err }

// OutcomeOf extracts the classification from an error chain; transport errors
// from outside the client map to OutcomeTransportError.
func OutcomeOf(err error) Outcome {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Outcome
	}
	return OutcomeTransportError
}

// classifyStatus maps an HTTP status plus body presence onto an outcome.
func classifyStatus(status int, body []byte) Outcome {
	switch status {
	case 404:
		return OutcomeNotFound
	case 403:
		return OutcomeForbidden
	case 307:
		return OutcomeUnpublished
	case 503:
		return OutcomeUpstreamUnavailable
	case 200:
		if len(body) == 0 {
			return OutcomeEmptyResponse
		}
		return OutcomeSuccess
	default:
		if status >= 200 && status < 300 {
			if len(body) == 0 {
				return OutcomeEmptyResponse
			}
			return OutcomeSuccess
		}
		return OutcomeTransportError
	}
}

// classifyTransport maps a transport-level error onto an outcome.
func classifyTransport(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}
	if strings.Contains(err.Error(), "timed out") || strings.Contains(err.Error(), "timeout") {
		return OutcomeTimeout
	}
	return OutcomeTransportError
}

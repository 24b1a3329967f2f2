package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindAuth Kind = iota
	KindNotFound
	KindBadRequest
	KindServer
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindServer:
		return "server"
	default:
		return "network"
	}
}

// Error is the tagged failure every client method returns for non-2xx
// responses and transport problems. Status is 0 for transport failures.
type Error struct {
	Kind    Kind
	Status  int
	Op      string
	Body    string
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s: %s (status %d): %s", e.Op, e.Kind, e.Status, e.Body)
	}
	return fmt.Sprintf("upstream %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindBadRequest
	default:
		return KindServer
	}
}

func netError(op string, err error) *Error {
	timeout := errors.Is(err, context.DeadlineExceeded)
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		timeout = true
	}
	return &Error{Kind: KindNetwork, Op: op, Timeout: timeout, Err: err}
}

// HTTPStatus maps a client error to the status the DAV surface should
// emit. Auth failures are masked as 500: a broken token exchange is an
// operator problem, not something the calendar client can act on.
func HTTPStatus(err error) int {
	var ue *Error
	if !errors.As(err, &ue) {
		return http.StatusInternalServerError
	}
	switch ue.Kind {
	case KindAuth:
		return http.StatusInternalServerError
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusUnprocessableEntity
	case KindNetwork:
		if ue.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Kind == KindNotFound
}

package interactions

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ValidationError is returned before anything is mutated or dispatched.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (err ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", err.Field, err.Reason)
}

func (err ValidationError) Unwrap() error {
	return err.Err
}

// MutationInFlightError is returned when the same action on the same entity
// is still waiting for the gateway.
type MutationInFlightError struct {
	EntityID string
	Kind     Kind
}

func (err MutationInFlightError) Error() string {
	return fmt.Sprintf("%s on %q is already in flight", err.Kind, err.EntityID)
}

type EntityNotFoundError struct {
	EntityID string
	Kind     Kind
}

func (err EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity %q for %s is not cached", err.EntityID, err.Kind)
}

// NetworkError is a transient failure to reach the gateway, including
// timeouts. The caller may retry.
type NetworkError struct {
	Err error
}

func (err *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", err.Err)
}

func (err *NetworkError) Unwrap() error {
	return err.Err
}

// RejectedError means the server explicitly declined the mutation.
type RejectedError struct {
	Reason string
	Err    error
}

func (err *RejectedError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("rejected: %s: %v", err.Reason, err.Err)
	}

	return fmt.Sprintf("rejected: %s", err.Reason)
}

func (err *RejectedError) Unwrap() error {
	return err.Err
}

type UnknownError struct {
	Err error
}

func (err *UnknownError) Error() string {
	return fmt.Sprintf("unknown error: %v", err.Err)
}

func (err *UnknownError) Unwrap() error {
	return err.Err
}

const (
	classNetwork  = "network"
	classRejected = "rejected"
	classUnknown  = "unknown"
)

// classify maps a gateway failure onto NetworkError, RejectedError or
// UnknownError, keeping the original error in the chain, and names the class.
func classify(err error) (string, error) {
	var (
		networkErr  *NetworkError
		rejectedErr *RejectedError
		unknownErr  *UnknownError
		netErr      net.Error
	)

	switch {
	case errors.As(err, &rejectedErr):
		return classRejected, err
	case errors.As(err, &networkErr):
		return classNetwork, err
	case errors.As(err, &unknownErr):
		return classUnknown, err
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return classNetwork, &NetworkError{Err: err}
	default:
		return classUnknown, &UnknownError{Err: err}
	}
}

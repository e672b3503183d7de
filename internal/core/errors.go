package core

import "errors"

var (
	// ErrEmptyEnvelope means the envelope has no receiver or no content.
	ErrEmptyEnvelope = errors.New("empty envelope")
	// ErrUnboundSender means the sending connection has no verified identity.
	ErrUnboundSender = errors.New("unbound sender")
	// ErrSelfMessage means sender and receiver are the same user.
	ErrSelfMessage = errors.New("self message")
	// ErrAlreadyBound means the connection is bound to a different identity.
	ErrAlreadyBound = errors.New("already bound to a different identity")
	// ErrNotRegistered means the connection is not in the registry.
	ErrNotRegistered = errors.New("connection not registered")
)

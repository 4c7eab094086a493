package sshagent

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEndpoint is returned when no agent socket is configured.
	ErrNoEndpoint = errors.New(AuthSockEnv + " not set")
	// ErrAgentFailure is returned when the agent answers SSH_AGENT_FAILURE.
	ErrAgentFailure = errors.New("agent refused the key")
	// ErrUnexpectedReply is returned for a reply that is neither success nor failure.
	ErrUnexpectedReply = errors.New("unexpected agent reply")
)

const startAgentHint = "Make sure your SSH agent is running and " + AuthSockEnv + " is set correctly.\n" +
	"Start one with: eval \"$(ssh-agent -s)\""

// UnavailableError indicates that no agent could be reached. Key loading is
// unaffected; only registration is skipped.
type UnavailableError struct {
	Endpoint string
	Cause    error
	Hint     string
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("SSH agent unavailable: %v", e.Cause)
	if e.Endpoint != "" {
		msg = fmt.Sprintf("SSH agent unavailable at %s: %v", e.Endpoint, e.Cause)
	}
	if e.Hint != "" {
		msg += "\n\n" + e.Hint
	}
	return msg
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// CommunicationError indicates that a connection was established but the
// exchange with the agent failed.
type CommunicationError struct {
	Endpoint string
	Op       string
	Cause    error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("SSH agent %s: %s: %v", e.Endpoint, e.Op, e.Cause)
}

func (e *CommunicationError) Unwrap() error {
	return e.Cause
}

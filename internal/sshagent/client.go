package sshagent

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// DefaultTimeout bounds the dial and the exchange with the agent.
const DefaultTimeout = 5 * time.Second

// DiscoverEndpoint returns the agent socket path named by SSH_AUTH_SOCK.
// getenv is used for the lookup; nil means os.Getenv. ok is false when the
// variable is empty or the path does not exist, in which case the configured
// value (if any) is still returned for diagnostics.
func DiscoverEndpoint(getenv func(string) string) (endpoint string, ok bool) {
	if getenv == nil {
		getenv = os.Getenv
	}
	endpoint = getenv(AuthSockEnv)
	if endpoint == "" {
		return "", false
	}
	if _, err := os.Stat(endpoint); err != nil {
		return endpoint, false
	}
	return endpoint, true
}

// Client opens agent connections. The zero value sends fire-and-forget
// requests with DefaultTimeout. A Client holds no connection state and may be
// shared.
type Client struct {
	// Timeout bounds the dial and the whole request. Zero means DefaultTimeout.
	Timeout time.Duration
	// WaitForReply makes AddIdentity read and check the agent's status reply.
	WaitForReply bool
}

// Connect dials the agent socket. Failures are *UnavailableError.
func (c *Client) Connect(ctx context.Context, endpoint string) (*Conn, error) {
	if endpoint == "" {
		return nil, &UnavailableError{Cause: ErrNoEndpoint, Hint: startAgentHint}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	dialer := net.Dialer{Deadline: deadline}
	nc, err := dialer.DialContext(ctx, "unix", endpoint)
	if err != nil {
		return nil, &UnavailableError{
			Endpoint: endpoint,
			Cause:    fmt.Errorf("dialing SSH agent: %w", err),
			Hint:     startAgentHint,
		}
	}
	if err := nc.SetDeadline(deadline); err != nil {
		nc.Close()
		return nil, &CommunicationError{Endpoint: endpoint, Op: "set deadline", Cause: err}
	}

	return &Conn{
		conn:         nc,
		endpoint:     endpoint,
		waitForReply: c.WaitForReply,
	}, nil
}

// Register connects, sends one ADD_IDENTITY request and closes the
// connection on every path.
func (c *Client) Register(ctx context.Context, endpoint string, id RSAIdentity) error {
	conn, err := c.Connect(ctx, endpoint)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.AddIdentity(id)
}

// Conn is a single agent connection, owned by one request.
type Conn struct {
	conn         net.Conn
	endpoint     string
	waitForReply bool

	closeOnce sync.Once
	closeErr  error
}

// AddIdentity sends the key to the agent. Without WaitForReply no response
// is read.
func (c *Conn) AddIdentity(id RSAIdentity) error {
	if _, err := c.conn.Write(frame(MarshalAddIdentity(id))); err != nil {
		return &CommunicationError{Endpoint: c.endpoint, Op: "write", Cause: err}
	}
	if !c.waitForReply {
		return nil
	}
	if err := c.readReply(); err != nil {
		return &CommunicationError{Endpoint: c.endpoint, Op: "read reply", Cause: err}
	}
	return nil
}

func (c *Conn) readReply() error {
	var size [4]byte
	if _, err := io.ReadFull(c.conn, size[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(size[:])
	if n == 0 || n > maxReplySize {
		return fmt.Errorf("%w: length %d", ErrUnexpectedReply, n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return err
	}
	switch body[0] {
	case agentSuccess:
		return nil
	case agentFailure:
		return ErrAgentFailure
	default:
		return fmt.Errorf("%w: message type %d", ErrUnexpectedReply, body[0])
	}
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

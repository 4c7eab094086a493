package sshagent

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/ssh/agent"
)

// testAgent listens on a unix socket. With a keyring it speaks the
// agent protocol through agent.ServeAgent; without one it records the raw
// bytes of each connection.
type testAgent struct {
	keyring    agent.Agent
	socketPath string
	listener   net.Listener
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	// handled receives once per finished connection.
	handled chan struct{}

	mu       sync.Mutex
	received [][]byte
}

// newSocketPath returns a short socket path. t.TempDir() paths can exceed
// macOS's 104-char limit for unix sockets.
func newSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "sock")
	if err != nil {
		t.Fatalf("Creating temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "a.sock")
}

func startKeyringAgent(t *testing.T) (*testAgent, agent.Agent) {
	t.Helper()
	keyring := agent.NewKeyring()
	return startTestAgent(t, keyring), keyring
}

func startRecordingAgent(t *testing.T) *testAgent {
	t.Helper()
	return startTestAgent(t, nil)
}

func startTestAgent(t *testing.T, keyring agent.Agent) *testAgent {
	t.Helper()
	s := &testAgent{
		keyring:    keyring,
		socketPath: newSocketPath(t),
		done:       make(chan struct{}),
		handled:    make(chan struct{}, 16),
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		t.Fatalf("listening on socket: %v", err)
	}
	s.listener = listener

	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Stop)
	return s
}

func (s *testAgent) serve() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *testAgent) handleConnection(conn net.Conn) {
	defer func() { s.handled <- struct{}{} }()
	defer conn.Close()

	if s.keyring != nil {
		_ = agent.ServeAgent(s.keyring, conn)
		return
	}

	data, _ := io.ReadAll(conn)
	s.mu.Lock()
	s.received = append(s.received, data)
	s.mu.Unlock()
}

// waitHandled blocks until the agent has finished n connections. A client
// that does not wait for replies returns before the agent accepts its
// connection, so tests must wait here before inspecting agent state.
func (s *testAgent) waitHandled(t *testing.T, n int) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-s.handled:
		case <-timeout:
			t.Fatalf("agent handled %d connections, want %d", i, n)
		}
	}
}

// Stop closes the listener and waits for in-flight connections to finish.
func (s *testAgent) Stop() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.listener.Close()
	})
	s.wg.Wait()
}

func (s *testAgent) Received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.received...)
}

package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"net"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// MockSSHServer is an SSH server answering `cat -- 'path'` exec requests from
// an in-memory file map.
type MockSSHServer struct {
	t        testing.TB
	listener net.Listener
	config   *ssh.ServerConfig
	files    map[string][]byte

	mu          sync.Mutex
	running     bool
	connections []ssh.Conn
	commands    []string
}

// NewMockSSHServer creates a mock SSH server accepting any client.
func NewMockSSHServer(t testing.TB, files map[string][]byte) *MockSSHServer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("failed to create host key signer: %v", err)
	}

	config := &ssh.ServerConfig{NoClientAuth: true}
	config.AddHostKey(signer)

	return &MockSSHServer{
		t:      t,
		config: config,
		files:  files,
	}
}

// Start starts the server and returns its address. It is stopped when the
// test ends.
func (s *MockSSHServer) Start() string {
	s.t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		s.t.Fatalf("failed to listen: %v", err)
	}
	s.listener = listener
	s.running = true
	s.t.Cleanup(s.Stop)

	go s.acceptConnections()
	return listener.Addr().String()
}

// Stop stops the mock SSH server.
func (s *MockSSHServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.listener.Close()
	for _, conn := range s.connections {
		conn.Close()
	}
}

// Commands returns the exec commands received so far.
func (s *MockSSHServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *MockSSHServer) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConnection(conn)
	}
}

func (s *MockSSHServer) handleConnection(netConn net.Conn) {
	sshConn, chans, reqs, err := ssh.NewServerConn(netConn, s.config)
	if err != nil {
		netConn.Close()
		return
	}

	s.mu.Lock()
	s.connections = append(s.connections, sshConn)
	s.mu.Unlock()

	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(channel, requests)
	}
}

func (s *MockSSHServer) handleSession(channel ssh.Channel, requests <-chan *ssh.Request) {
	defer channel.Close()

	for req := range requests {
		if req.Type != "exec" || len(req.Payload) < 4 {
			if req.WantReply {
				req.Reply(false, nil)
			}
			continue
		}

		cmd := string(req.Payload[4:])
		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		s.mu.Unlock()
		if req.WantReply {
			req.Reply(true, nil)
		}

		status := uint32(0)
		content, ok := s.files[catPath(cmd)]
		if ok {
			channel.Write(content)
		} else {
			channel.Stderr().Write([]byte("cat: no such file\n"))
			status = 1
		}
		exitStatus := make([]byte, 4)
		binary.BigEndian.PutUint32(exitStatus, status)
		channel.SendRequest("exit-status", false, exitStatus)
		return
	}
}

// catPath extracts the path from `cat -- 'path'`.
func catPath(cmd string) string {
	p := strings.TrimPrefix(cmd, "cat -- ")
	p = strings.TrimPrefix(p, "'")
	p = strings.TrimSuffix(p, "'")
	return strings.ReplaceAll(p, `'\''`, "'")
}

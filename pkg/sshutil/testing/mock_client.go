// Package testing provides a mock SSH runner for exercising remote-session
// code without a live instance.
package testing

import (
	"errors"
	"io"
	"regexp"
	"sync"
)

// CommandResponse defines a canned response for a specific command pattern.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

// MockClient simulates an SSH connection for testing.
// Commands are matched first exactly, then as regexp patterns; unmatched
// commands succeed with empty output. Every executed command is recorded.
type MockClient struct {
	mu       sync.Mutex
	host     string
	address  string
	closed   bool
	commands map[string]CommandResponse // pattern -> response

	// Executed records each command passed to Exec/ExecStream, in order.
	Executed []string
}

// NewMockClient creates a new mock SSH client.
func NewMockClient(host string) *MockClient {
	return &MockClient{
		host:     host,
		address:  host + ":22",
		commands: make(map[string]CommandResponse),
	}
}

// SetResponse configures the response for a command or regexp pattern.
func (m *MockClient) SetResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands[pattern] = resp
}

// Exec runs a command against the canned responses.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, -1, errors.New("connection closed")
	}

	m.Executed = append(m.Executed, cmd)

	if resp, ok := m.commands[cmd]; ok {
		return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
	}
	for pattern, resp := range m.commands {
		if matched, _ := regexp.MatchString(pattern, cmd); matched {
			return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
		}
	}

	return nil, nil, 0, nil
}

// ExecStream runs a command and writes the canned stdout/stderr to the writers.
func (m *MockClient) ExecStream(cmd string, stdout, stderr io.Writer) (int, error) {
	out, errOut, code, err := m.Exec(cmd)
	if err != nil {
		return -1, err
	}
	if len(out) > 0 && stdout != nil {
		stdout.Write(out) //nolint:errcheck // Test helper
	}
	if len(errOut) > 0 && stderr != nil {
		stderr.Write(errOut) //nolint:errcheck // Test helper
	}
	return code, nil
}

// Close marks the connection closed; further Exec calls fail.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// GetHost returns the host the mock was created with.
func (m *MockClient) GetHost() string {
	return m.host
}

// GetAddress returns host:22.
func (m *MockClient) GetAddress() string {
	return m.address
}

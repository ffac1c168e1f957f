// ABOUTME: Process-pipe transport that launches a provider as a subprocess.
// ABOUTME: Frames JSON-RPC messages newline-delimited over stdin/stdout.

package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/chatconnect/toolgate/internal/jsonrpc"
)

// Stdio runs the provider as a child process. The endpoint is the command
// line to launch, e.g. "npx my-provider --stdio". One exchange is in
// flight at a time; the provider answers requests in order on stdout.
type Stdio struct {
	command string
	logger  *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	closed bool
}

// NewStdio creates a process-pipe transport for the given command line.
func NewStdio(command string, logger *slog.Logger) *Stdio {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stdio{
		command: command,
		logger:  logger.With("component", "transport.stdio"),
	}
}

// Kind returns KindStdio.
func (s *Stdio) Kind() Kind { return KindStdio }

// Connect launches the subprocess and wires up its pipes.
func (s *Stdio) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.Fields(s.command)
	if len(parts) == 0 {
		return fmt.Errorf("empty provider command")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("opening stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("opening stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting provider process: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.closed = false
	s.logger.Debug("provider process started", "command", parts[0], "pid", cmd.Process.Pid)
	return nil
}

// Exchange writes one newline-terminated request and reads response lines
// until one carries the request's id. Non-matching lines (notifications,
// log spill) are skipped.
func (s *Stdio) Exchange(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.closed {
		return nil, ErrNotConnected
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	payload = append(payload, '\n')

	type lineResult struct {
		resp *jsonrpc.Response
		err  error
	}
	done := make(chan lineResult, 1)
	go func() {
		if _, err := s.stdin.Write(payload); err != nil {
			done <- lineResult{nil, fmt.Errorf("writing request: %w", err)}
			return
		}
		for {
			line, err := s.stdout.ReadString('\n')
			if err != nil {
				done <- lineResult{nil, fmt.Errorf("reading response: %w", err)}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var resp jsonrpc.Response
			if err := json.Unmarshal([]byte(line), &resp); err != nil {
				s.logger.Debug("skipping non-JSON stdout line", "line", line)
				continue
			}
			if resp.Result == nil && resp.Error == nil {
				continue
			}
			if !resp.Matches(req) {
				continue
			}
			done <- lineResult{&resp, nil}
			return
		}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		// The reader goroutine stays blocked on the pipe; the process is
		// torn down so it unblocks and the transport is not reused.
		s.closeLocked()
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}

// Close terminates the subprocess.
func (s *Stdio) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Stdio) closeLocked() error {
	if s.closed || s.cmd == nil {
		return nil
	}
	s.closed = true
	if s.stdin != nil {
		s.stdin.Close()
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.logger.Debug("provider process stopped")
	return nil
}

package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/camsession/internal/logging"
)

// OutputHandler receives output lines from the subprocess.
type OutputHandler interface {
	HandleLine(source, line string)
}

// LogParser parses a log line and returns the log level and message.
type LogParser func(line string) (level, msg string)

// killedExitCode is reported when the process had to be force-killed.
const killedExitCode = 137

// Option configures a Process.
type Option func(*Process)

// WithLogger sets the lifecycle logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Process) {
		p.logger = logger
	}
}

// WithLogParser routes process output through logger, leveled by parser.
func WithLogParser(logger logging.Logger, parser LogParser) Option {
	return func(p *Process) {
		p.processLogger = logger
		p.logParser = parser
	}
}

// WithOutputHandler forwards every output line to handler.
func WithOutputHandler(handler OutputHandler) Option {
	return func(p *Process) {
		p.outputHandler = handler
	}
}

// WithTimeouts sets how long Stop waits after SIGINT and after SIGKILL.
func WithTimeouts(graceful, kill time.Duration) Option {
	return func(p *Process) {
		if graceful > 0 {
			p.gracefulTimeout = graceful
		}
		if kill > 0 {
			p.killTimeout = kill
		}
	}
}

// Process runs one subprocess from Start to Stop.
type Process struct {
	id              string
	args            []string
	logger          logging.Logger
	processLogger   logging.Logger
	logParser       LogParser
	outputHandler   OutputHandler
	gracefulTimeout time.Duration
	killTimeout     time.Duration

	mu        sync.Mutex
	cmd       *exec.Cmd
	state     State
	startedAt time.Time
	exitCode  int
	lastError error
	exited    chan struct{}
	waitErr   error
}

// New creates a process for args. Nothing runs until Start.
func New(id string, args []string, opts ...Option) *Process {
	p := &Process{
		id:              id,
		args:            append([]string(nil), args...),
		logger:          logging.GetLogger("process"),
		gracefulTimeout: 5 * time.Second,
		killTimeout:     5 * time.Second,
		state:           StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Command returns the command line, for logs.
func (p *Process) Command() string {
	return strings.Join(p.args, " ")
}

// Start launches the subprocess. A process can be started once.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateIdle {
		return fmt.Errorf("process %s already started", p.id)
	}
	if len(p.args) == 0 {
		p.state = StateError
		p.lastError = errors.New("empty command")
		return p.lastError
	}
	p.state = StateStarting

	cmd := exec.Command(p.args[0], p.args[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return p.failLocked(fmt.Errorf("failed to create stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return p.failLocked(fmt.Errorf("failed to create stderr pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return p.failLocked(fmt.Errorf("failed to start process: %w", err))
	}

	p.cmd = cmd
	p.state = StateRunning
	p.startedAt = time.Now()
	p.exited = make(chan struct{})
	p.logger.Info("Process started", "id", p.id, "pid", cmd.Process.Pid, "command", p.Command())

	var output sync.WaitGroup
	output.Add(2)
	go func() {
		defer output.Done()
		p.streamOutput(stdout, "stdout")
	}()
	go func() {
		defer output.Done()
		p.streamOutput(stderr, "stderr")
	}()

	go func() {
		// Pipes must be drained before Wait.
		output.Wait()
		err := cmd.Wait()

		p.mu.Lock()
		p.waitErr = err
		p.exitCode = exitCodeFromError(err)
		if p.state == StateRunning {
			p.state = StateError
			p.lastError = fmt.Errorf("process exited with code %d", p.exitCode)
			p.logger.Warn("Process exited unexpectedly", "id", p.id, "exit_code", p.exitCode)
		}
		close(p.exited)
		p.mu.Unlock()
	}()
	return nil
}

func (p *Process) failLocked(err error) error {
	p.state = StateError
	p.lastError = err
	p.logger.Error("Failed to start process", "id", p.id, "error", err, "command", p.Command())
	return err
}

// Done is closed when the subprocess exits. It is nil before Start.
func (p *Process) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

// Info returns a snapshot of the process state.
func (p *Process) Info() Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	info := Info{
		ID:        p.id,
		State:     p.state,
		StartedAt: p.startedAt,
		ExitCode:  p.exitCode,
		LastError: p.lastError,
	}
	if p.cmd != nil && p.cmd.Process != nil {
		info.PID = p.cmd.Process.Pid
	}
	return info
}

// Stop sends SIGINT, waits for the graceful timeout, then kills. It
// returns the exit code and is safe to call repeatedly.
func (p *Process) Stop() int {
	p.mu.Lock()
	switch p.state {
	case StateIdle, StateError:
		exited, code := p.exited, p.exitCode
		if exited == nil {
			p.mu.Unlock()
			return code
		}
		p.mu.Unlock()
		<-exited
		return code
	case StateStopped:
		code := p.exitCode
		p.mu.Unlock()
		return code
	}
	p.state = StateStopping
	exited := p.exited
	p.mu.Unlock()

	p.sendStopSignal()
	code := p.waitForExit(exited)

	p.mu.Lock()
	p.state = StateStopped
	p.exitCode = code
	p.mu.Unlock()
	p.logger.Info("Process stopped", "id", p.id, "exit_code", code)
	return code
}

// exitCodeFromError returns 0 for nil, the exit code for an ExitError,
// and 1 otherwise.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// sendStopSignal sends SIGINT to the subprocess without waiting.
func (p *Process) sendStopSignal() {
	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	p.logger.Debug("Sending SIGINT to process", "id", p.id, "pid", p.cmd.Process.Pid)
	if err := p.cmd.Process.Signal(syscall.SIGINT); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("Failed to send SIGINT", "id", p.id, "error", err)
	}
}

// waitForExit waits for exit, force-killing after the graceful timeout.
func (p *Process) waitForExit(exited <-chan struct{}) int {
	select {
	case <-exited:
		p.mu.Lock()
		defer p.mu.Unlock()
		return exitCodeFromError(p.waitErr)
	case <-time.After(p.gracefulTimeout):
	}

	p.logger.Warn("Graceful shutdown timeout, forcing kill", "id", p.id, "timeout", p.gracefulTimeout)
	// The process leads its own group; kill children holding our pipes too.
	if err := syscall.Kill(-p.cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		p.logger.Error("Failed to kill process", "id", p.id, "error", err)
	}

	select {
	case <-exited:
	case <-time.After(p.killTimeout):
		p.logger.Error("Process did not exit after kill signal", "id", p.id)
	}
	return killedExitCode
}

// streamOutput logs every line of reader at the level the parser reports.
func (p *Process) streamOutput(reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)

	logger := p.processLogger
	if logger == nil {
		logger = p.logger
	}

	for scanner.Scan() {
		line := scanner.Text()

		if p.outputHandler != nil {
			p.outputHandler.HandleLine(source, line)
		}

		level, msg := "info", line
		if p.logParser != nil {
			level, msg = p.logParser(line)
		}

		switch level {
		case "fatal", "error":
			logger.Error(msg, "id", p.id)
		case "warning":
			logger.Warn(msg, "id", p.id)
		case "debug", "trace":
			logger.Debug(msg, "id", p.id)
		default:
			logger.Info(msg, "id", p.id)
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		p.logger.Warn("Error reading output", "id", p.id, "source", source, "error", err)
	}
}

// Output runs args to completion and returns combined stdout and stderr.
// A non-zero exit is returned as an error alongside the output.
func Output(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

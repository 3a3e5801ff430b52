// Package supervisor launches and supervises the container's application
// processes.
//
// The supervisor starts each process from a Spec, tracks it by name, and
// waits on every child independently so a failure can be attributed to the
// process that caused it. It performs no health checking, restarting, or
// recovery: a failed process is reported, not healed. Signals delivered to
// the supervisor are forwarded to all running children so the container
// shuts down cleanly.
package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/taskmatrix/tmx/internal/logger"
)

// Spec describes one process to launch.
type Spec struct {
	// Name identifies the process in logs and failure reports.
	Name string

	// Command is the executable to run.
	Command string

	// Args are the command-line arguments, not including the command itself.
	Args []string

	// Env is appended to the current process environment. Entries use
	// "KEY=VALUE" form.
	Env []string

	// Dir is the working directory. Empty means inherit.
	Dir string
}

// Process is a launched child process.
type Process struct {
	spec      Spec
	cmd       *exec.Cmd
	startedAt time.Time

	done    chan struct{}
	waitErr error
}

// Name returns the process name from its Spec.
func (p *Process) Name() string {
	return p.spec.Name
}

// PID returns the OS process identifier of the child.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Done returns a channel that is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns the process exit error. It must only be called after the
// Done channel is closed; nil means the process exited successfully.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return fmt.Errorf("process %s has not exited", p.spec.Name)
	}
}

// Supervisor launches processes and waits for all of them to exit.
//
// Thread-safety: all methods are safe for concurrent use.
type Supervisor struct {
	mu    sync.Mutex
	procs []*Process

	waitOnce sync.Once
	waitErr  error
}

// New creates an empty supervisor.
func New() *Supervisor {
	return &Supervisor{}
}

// Start launches the process described by spec.
//
// The child inherits the supervisor's stdout and stderr so its output is
// visible in the container log stream. The returned Process is registered
// with the supervisor and included in Wait.
//
// Returns:
//   - The launched process
//   - Error if the executable cannot be started
func (s *Supervisor) Start(spec Spec) (*Process, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", spec.Name, err)
	}

	p := &Process{
		spec:      spec,
		cmd:       cmd,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}

	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
		if p.waitErr != nil {
			logger.Error("Process %s (pid %d) exited: %v", spec.Name, p.PID(), p.waitErr)
		} else {
			logger.Info("Process %s (pid %d) exited cleanly", spec.Name, p.PID())
		}
	}()

	s.mu.Lock()
	s.procs = append(s.procs, p)
	s.mu.Unlock()

	logger.Info("Started process %s (pid %d): %s", spec.Name, p.PID(), cmd.String())

	return p, nil
}

// Processes returns a snapshot of all launched processes.
func (s *Supervisor) Processes() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Process, len(s.procs))
	copy(out, s.procs)
	return out
}

// Signal forwards sig to every launched process that is still running.
// Delivery errors to already-exited processes are ignored.
func (s *Supervisor) Signal(sig os.Signal) {
	for _, p := range s.Processes() {
		select {
		case <-p.done:
			continue
		default:
		}
		logger.Info("Forwarding signal %v to %s (pid %d)", sig, p.Name(), p.PID())
		if err := p.cmd.Process.Signal(sig); err != nil {
			logger.Debug("Signal %v to %s failed: %v", sig, p.Name(), err)
		}
	}
}

// Wait blocks until every launched process has exited and returns the
// aggregated failures, one per failed process, attributed by name and PID.
//
// Wait is idempotent: subsequent calls return the same result without
// waiting again, and waiting on already-exited processes is a no-op.
//
// Returns:
//   - nil if every process exited successfully
//   - Aggregated error naming each failed process otherwise
func (s *Supervisor) Wait() error {
	s.waitOnce.Do(func() {
		var result *multierror.Error
		for _, p := range s.Processes() {
			<-p.done
			if p.waitErr != nil {
				result = multierror.Append(result, fmt.Errorf(
					"process %s (pid %d): %w", p.Name(), p.PID(), p.waitErr))
			}
		}
		s.waitErr = result.ErrorOrNil()
	})
	return s.waitErr
}

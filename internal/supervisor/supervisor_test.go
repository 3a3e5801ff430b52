package supervisor

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAndWaitCleanExit(t *testing.T) {
	sup := New()

	p, err := sup.Start(Spec{Name: "true", Command: "/bin/sh", Args: []string{"-c", "exit 0"}})
	require.NoError(t, err)
	assert.Equal(t, "true", p.Name())
	assert.Greater(t, p.PID(), 0)

	require.NoError(t, sup.Wait())

	select {
	case <-p.Done():
	default:
		t.Fatal("Done channel should be closed after Wait")
	}
	assert.NoError(t, p.Err())
}

func TestStartUnknownExecutable(t *testing.T) {
	sup := New()
	_, err := sup.Start(Spec{Name: "ghost", Command: "/nonexistent/binary"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestWaitAttributesFailures(t *testing.T) {
	sup := New()

	_, err := sup.Start(Spec{Name: "ok", Command: "/bin/sh", Args: []string{"-c", "exit 0"}})
	require.NoError(t, err)
	_, err = sup.Start(Spec{Name: "bad", Command: "/bin/sh", Args: []string{"-c", "exit 3"}})
	require.NoError(t, err)

	waitErr := sup.Wait()
	require.Error(t, waitErr)
	assert.Contains(t, waitErr.Error(), "process bad")
	assert.Contains(t, waitErr.Error(), "exit status 3")
	assert.NotContains(t, waitErr.Error(), "process ok")
}

func TestWaitIsIdempotent(t *testing.T) {
	sup := New()

	_, err := sup.Start(Spec{Name: "bad", Command: "/bin/sh", Args: []string{"-c", "exit 1"}})
	require.NoError(t, err)

	first := sup.Wait()
	require.Error(t, first)

	// Repeated calls return the same aggregated result without blocking.
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, sup.Wait())
	}
}

func TestWaitEmptySupervisor(t *testing.T) {
	assert.NoError(t, New().Wait())
}

func TestSpecEnvIsPassedToChild(t *testing.T) {
	sup := New()

	p, err := sup.Start(Spec{
		Name:    "env-check",
		Command: "/bin/sh",
		Args:    []string{"-c", `[ "$TMX_TEST_VAR" = "hello" ]`},
		Env:     []string{"TMX_TEST_VAR=hello"},
	})
	require.NoError(t, err)

	<-p.Done()
	assert.NoError(t, p.Err())
}

func TestSignalTerminatesChild(t *testing.T) {
	sup := New()

	p, err := sup.Start(Spec{Name: "sleeper", Command: "/bin/sh", Args: []string{"-c", "sleep 30"}})
	require.NoError(t, err)

	// Give the shell a moment to exec before signalling.
	time.Sleep(100 * time.Millisecond)
	sup.Signal(syscall.SIGTERM)

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after SIGTERM")
	}

	waitErr := sup.Wait()
	require.Error(t, waitErr)
	assert.Contains(t, waitErr.Error(), "process sleeper")
}

func TestErrBeforeExit(t *testing.T) {
	sup := New()

	p, err := sup.Start(Spec{Name: "sleeper", Command: "/bin/sh", Args: []string{"-c", "sleep 30"}})
	require.NoError(t, err)
	defer func() {
		sup.Signal(syscall.SIGKILL)
		sup.Wait()
	}()

	assert.Error(t, p.Err())
}

func TestProcessesSnapshot(t *testing.T) {
	sup := New()

	_, err := sup.Start(Spec{Name: "a", Command: "/bin/sh", Args: []string{"-c", "exit 0"}})
	require.NoError(t, err)
	_, err = sup.Start(Spec{Name: "b", Command: "/bin/sh", Args: []string{"-c", "exit 0"}})
	require.NoError(t, err)

	procs := sup.Processes()
	require.Len(t, procs, 2)
	assert.Equal(t, "a", procs[0].Name())
	assert.Equal(t, "b", procs[1].Name())

	require.NoError(t, sup.Wait())
}

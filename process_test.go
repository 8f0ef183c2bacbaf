package main

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisorTerminateAllEmpty(t *testing.T) {
	sup := NewProcessSupervisor()

	assert.Equal(t, 0, sup.TrackedCount())
	sup.TerminateAll() // не должен паниковать и блокироваться
	assert.Equal(t, 0, sup.TrackedCount())
}

func TestSupervisorStartFailure(t *testing.T) {
	sup := NewProcessSupervisor()

	_, err := sup.Start("missing", exec.Command("/definitely/not/a/binary"))
	require.Error(t, err)
	assert.Equal(t, 0, sup.TrackedCount())
}

func TestSupervisorTracksAndWaits(t *testing.T) {
	sup := NewProcessSupervisor()

	proc, err := sup.Start("sleep", exec.Command("sleep", "0.1"))
	require.NoError(t, err)
	assert.Equal(t, 1, sup.TrackedCount())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, proc.Wait(ctx))

	assert.True(t, proc.Exited())
	assert.Equal(t, 0, proc.ExitCode())

	sup.TerminateAll()
	assert.Equal(t, 0, sup.TrackedCount())
}

func TestSupervisorGracefulTermination(t *testing.T) {
	sup := NewProcessSupervisor()
	sup.gracePeriod = 2 * time.Second

	// sleep умирает от SIGTERM сразу — SIGKILL не понадобится
	proc, err := sup.Start("sleep", exec.Command("sleep", "60"))
	require.NoError(t, err)

	start := time.Now()
	sup.TerminateAll()

	assert.True(t, proc.Exited())
	assert.Less(t, time.Since(start), sup.gracePeriod)
	assert.Equal(t, 0, sup.TrackedCount())
}

func TestSupervisorEscalatesToKill(t *testing.T) {
	sup := NewProcessSupervisor()
	sup.gracePeriod = 300 * time.Millisecond

	// Процесс игнорирует SIGTERM — должен умереть от SIGKILL после grace period
	proc, err := sup.Start("stubborn", exec.Command("sh", "-c", `trap '' TERM; sleep 60`))
	require.NoError(t, err)

	// Дать шеллу время установить trap
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	sup.TerminateAll()
	elapsed := time.Since(start)

	assert.True(t, proc.Exited())
	assert.GreaterOrEqual(t, elapsed, sup.gracePeriod)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestSupervisorTerminatesConcurrently(t *testing.T) {
	sup := NewProcessSupervisor()
	sup.gracePeriod = 500 * time.Millisecond

	// Три упрямых процесса: последовательное завершение заняло бы 3 grace periods
	for i := 0; i < 3; i++ {
		_, err := sup.Start("stubborn", exec.Command("sh", "-c", `trap '' TERM; sleep 60`))
		require.NoError(t, err)
	}
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	sup.TerminateAll()
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 2*sup.gracePeriod, "termination must run concurrently, not serialized")
	assert.Equal(t, 0, sup.TrackedCount())
	assert.Equal(t, 0, sup.ActiveCount())
}

func TestSupervisorSkipsAlreadyExited(t *testing.T) {
	sup := NewProcessSupervisor()

	proc, err := sup.Start("true", exec.Command("true"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, proc.Wait(ctx))

	start := time.Now()
	sup.TerminateAll()

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, sup.TrackedCount())
}

func TestManagedProcessWaitContextCancel(t *testing.T) {
	sup := NewProcessSupervisor()

	proc, err := sup.Start("sleep", exec.Command("sleep", "60"))
	require.NoError(t, err)
	defer sup.TerminateAll()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = proc.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, proc.Exited())
	assert.Equal(t, -1, proc.ExitCode())
}

func TestManagedProcessNonZeroExitCode(t *testing.T) {
	sup := NewProcessSupervisor()

	proc, err := sup.Start("false", exec.Command("false"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	waitErr := proc.Wait(ctx)

	require.Error(t, waitErr)
	assert.Equal(t, 1, proc.ExitCode())
}

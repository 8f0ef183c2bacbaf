package main

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Grace period между SIGTERM и SIGKILL
var terminationGracePeriod = 5 * time.Second

// ManagedProcess — внешний процесс под надзором супервизора
type ManagedProcess struct {
	cmd  *exec.Cmd
	name string
	done chan struct{}
	err  error // результат cmd.Wait(), валиден после закрытия done
}

func (p *ManagedProcess) Name() string {
	return p.name
}

// Exited — процесс уже завершился?
func (p *ManagedProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait — дождаться завершения процесса или отмены контекста
func (p *ManagedProcess) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExitCode — код завершения; -1 пока процесс жив
func (p *ManagedProcess) ExitCode() int {
	if p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// ProcessSupervisor отслеживает все порождённые процессы одного задания.
// Живёт ровно одно задание: список пуст до старта и пуст после TerminateAll.
type ProcessSupervisor struct {
	mu          sync.Mutex
	processes   []*ManagedProcess
	gracePeriod time.Duration
}

func NewProcessSupervisor() *ProcessSupervisor {
	return &ProcessSupervisor{gracePeriod: terminationGracePeriod}
}

// Start — запустить команду и взять её под надзор
func (ps *ProcessSupervisor) Start(name string, cmd *exec.Cmd) (*ManagedProcess, error) {
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	proc := &ManagedProcess{
		cmd:  cmd,
		name: name,
		done: make(chan struct{}),
	}

	// Единственный вызов cmd.Wait() живёт здесь
	go func() {
		proc.err = cmd.Wait()
		close(proc.done)
	}()

	ps.mu.Lock()
	ps.processes = append(ps.processes, proc)
	ps.mu.Unlock()

	log.Printf("🔧 Started %s (pid %d)", name, cmd.Process.Pid)
	return proc, nil
}

// TrackedCount — сколько процессов числится за супервизором
func (ps *ProcessSupervisor) TrackedCount() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.processes)
}

// ActiveCount — сколько отслеживаемых процессов ещё живы
func (ps *ProcessSupervisor) ActiveCount() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	count := 0
	for _, p := range ps.processes {
		if !p.Exited() {
			count++
		}
	}
	return count
}

// TerminateAll — мягко, по таймауту жёстко; все процессы параллельно,
// поэтому общее время ограничено одним grace period. Ошибки только логируются.
func (ps *ProcessSupervisor) TerminateAll() {
	ps.mu.Lock()
	procs := ps.processes
	ps.processes = nil
	ps.mu.Unlock()

	if len(procs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, proc := range procs {
		wg.Add(1)
		go func(p *ManagedProcess) {
			defer wg.Done()
			ps.terminate(p)
		}(proc)
	}
	wg.Wait()

	log.Printf("🧹 All %d tracked processes stopped", len(procs))
}

func (ps *ProcessSupervisor) terminate(p *ManagedProcess) {
	if p.Exited() {
		return
	}

	log.Printf("🛑 Terminating %s (pid %d)...", p.name, p.cmd.Process.Pid)

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		log.Printf("⚠️ Failed to signal %s: %v", p.name, err)
	}

	select {
	case <-p.done:
		log.Printf("✅ %s stopped gracefully", p.name)
		return
	case <-time.After(ps.gracePeriod):
	}

	log.Printf("⚠️ %s did not stop within %v, killing", p.name, ps.gracePeriod)
	if err := p.cmd.Process.Kill(); err != nil {
		log.Printf("⚠️ Failed to kill %s: %v", p.name, err)
	}
	<-p.done
}

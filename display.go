package main

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"time"
)

const displayResolution = "1920x1080x24"

// Окно в течение которого Xvfb обязан остаться живым
var displaySettleWindow = 3 * time.Second

// Команда вынесена в переменную, чтобы тесты обходились без реального Xvfb
var displayCommand = func(display string) *exec.Cmd {
	return exec.Command("Xvfb",
		display,
		"-screen", "0", displayResolution,
		"-nolisten", "tcp",
	)
}

// startVirtualDisplay — запустить виртуальный дисплей и убедиться,
// что он пережил settle window. Это только liveness-проверка:
// пригодность дисплея к отрисовке здесь не подтверждается.
func startVirtualDisplay(sup *ProcessSupervisor, display string) (*ManagedProcess, error) {
	proc, err := sup.Start("Xvfb", displayCommand(display))
	if err != nil {
		return nil, fmt.Errorf("failed to start virtual display: %w", err)
	}

	settleCtx, cancel := context.WithTimeout(context.Background(), displaySettleWindow)
	defer cancel()
	proc.Wait(settleCtx)

	if proc.Exited() {
		return nil, fmt.Errorf("%w (exit code %d)", ErrDisplayStartFailed, proc.ExitCode())
	}

	log.Printf("🖥️ Virtual display %s is up (%s)", display, displayResolution)
	return proc, nil
}

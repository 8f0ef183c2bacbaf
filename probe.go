package main

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Параметры strong probe; переменные — чтобы тесты не ждали реальные минуты
var (
	probeInterval      = 1 * time.Second
	probeMaxAttempts   = 60
	stabilizationDelay = 3 * time.Second
)

// Медиа-элемент считается играющим только если позиция ушла дальше порога
const mediaTimeThreshold = 2.0

// readinessState — то, что страница сообщает о себе через DevTools
type readinessState struct {
	Ready     bool    `json:"ready"`
	Playing   bool    `json:"playing"`
	MediaTime float64 `json:"mediaTime"`
	Canvas    bool    `json:"canvas"`
	Loaded    bool    `json:"loaded"`
}

// confirmed — готовность требует ВСЕХ сигналов сразу
func (s readinessState) confirmed() bool {
	return s.Ready &&
		s.Playing &&
		s.MediaTime > mediaTimeThreshold &&
		s.Canvas &&
		s.Loaded
}

const readinessExpression = `({
	ready: !!window.__renderReady,
	playing: !!window.__renderPlaying,
	mediaTime: (function() {
		var m = document.querySelector("video, audio");
		return m ? m.currentTime : 0;
	})(),
	canvas: !!document.querySelector("canvas"),
	loaded: document.readyState === "complete"
})`

// waitForReadiness — дождаться пока страница реально начнёт рисовать кадры,
// а не просто загрузится
func waitForReadiness(proc *ManagedProcess, cfg Config) error {
	if cfg.ReadinessMode == "weak" {
		return waitForReadinessWeak(proc, time.Duration(cfg.ReadinessWait)*time.Second)
	}
	return waitForReadinessStrong(proc, cfg)
}

func waitForReadinessStrong(proc *ManagedProcess, cfg Config) error {
	devtoolsURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.DevToolsPort)

	for attempt := 1; attempt <= probeMaxAttempts; attempt++ {
		if proc.Exited() {
			return ErrBrowserExited
		}

		var state readinessState
		if err := evaluateInPage(devtoolsURL, readinessExpression, &state); err != nil {
			log.Printf("⏳ Readiness probe %d/%d: %v", attempt, probeMaxAttempts, err)
		} else if state.confirmed() {
			log.Printf("✅ Render host ready after %d attempts (mediaTime: %.1fs)", attempt, state.MediaTime)
			// Пауза чтобы визуальные эффекты успели инициализироваться
			time.Sleep(stabilizationDelay)
			return nil
		} else {
			log.Printf("⏳ Readiness probe %d/%d: ready=%v playing=%v mediaTime=%.1f canvas=%v loaded=%v",
				attempt, probeMaxAttempts,
				state.Ready, state.Playing, state.MediaTime, state.Canvas, state.Loaded)
		}

		time.Sleep(probeInterval)
	}

	return ErrReadinessTimeout
}

// waitForReadinessWeak — страница без in-page сигналов: браузер обязан
// просто пережить окно ожидания. Заведомо слабее strong probe.
func waitForReadinessWeak(proc *ManagedProcess, window time.Duration) error {
	waitCtx, cancel := context.WithTimeout(context.Background(), window)
	defer cancel()
	proc.Wait(waitCtx)

	if proc.Exited() {
		return ErrBrowserExited
	}

	log.Printf("✅ Render host survived %v wait window, assuming ready", window)
	return nil
}

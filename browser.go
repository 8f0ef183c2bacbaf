package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
)

// Команда вынесена в переменную, чтобы тесты обходились без реального браузера
var browserCommand = func(cfg Config, url, profileDir string) *exec.Cmd {
	// Фиксированный набор флагов, не настраивается per request
	cmd := exec.Command("chromium",
		"--no-sandbox",
		"--disable-setuid-sandbox",
		"--disable-gpu",
		"--autoplay-policy=no-user-gesture-required",
		"--kiosk",
		"--start-fullscreen",
		"--disable-extensions",
		"--disable-sync",
		"--disable-translate",
		"--disable-background-timer-throttling",
		"--disable-backgrounding-occluded-windows",
		"--disable-renderer-backgrounding",
		"--no-first-run",
		"--no-default-browser-check",
		"--window-size=1920,1080",
		"--window-position=0,0",
		fmt.Sprintf("--remote-debugging-port=%d", cfg.DevToolsPort),
		fmt.Sprintf("--user-data-dir=%s", profileDir),
		url,
	)
	cmd.Env = append(os.Environ(), "DISPLAY="+cfg.Display)
	return cmd
}

// launchRenderHost — запустить браузер на виртуальном дисплее
func launchRenderHost(sup *ProcessSupervisor, cfg Config, url, profileDir string) (*ManagedProcess, error) {
	if err := os.MkdirAll(profileDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	proc, err := sup.Start("chromium", browserCommand(cfg, url, profileDir))
	if err != nil {
		return nil, fmt.Errorf("failed to start render host: %w", err)
	}

	log.Printf("🌐 Render host launched: %s (profile: %s)", url, profileDir)
	return proc, nil
}

package main

import (
	"os"
	"strconv"
)

// Config — конфигурация сервиса из ENV переменных
type Config struct {
	Port            string
	OutputDir       string // куда пишутся готовые MP4
	ProfileBaseDir  string // изолированные профили браузера
	Display         string // виртуальный дисплей, например ":99"
	DevToolsPort    int    // порт DevTools для readiness probe
	ReadinessMode   string // "strong" или "weak"
	ReadinessWait   int    // окно ожидания для weak probe, секунды
	PreviewTemplate string // шаблон URL превью с одним %s (videoId)
}

func LoadConfig() Config {
	wait := getEnvInt("READINESS_WAIT_SECONDS", 15)

	// Weak probe имеет смысл только в диапазоне 5-30 секунд
	if wait < 5 {
		wait = 5
	}
	if wait > 30 {
		wait = 30
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		OutputDir:       getEnv("OUTPUT_DIR", "/tmp/recordings"),
		ProfileBaseDir:  getEnv("PROFILE_BASE_DIR", "/tmp/chrome-profiles"),
		Display:         getEnv("DISPLAY_NUM", ":99"),
		DevToolsPort:    getEnvInt("DEVTOOLS_PORT", 9222),
		ReadinessMode:   getEnv("READINESS_MODE", "strong"),
		ReadinessWait:   wait,
		PreviewTemplate: os.Getenv("PREVIEW_URL_TEMPLATE"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

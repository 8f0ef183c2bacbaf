package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const captureResolution = "1920x1080"
const captureFramerate = "30"

// Запас сверх заявленной длительности на финализацию контейнера
var encoderGrace = 30 * time.Second

// Команда вынесена в переменную, чтобы тесты обходились без реального ffmpeg
var encoderCommand = func(cfg Config, durationSeconds int, outputPath string) *exec.Cmd {
	return exec.Command("ffmpeg",
		"-loglevel", "info",
		"-f", "x11grab",
		"-video_size", captureResolution,
		"-framerate", captureFramerate,
		"-i", cfg.Display,
		"-t", strconv.Itoa(durationSeconds),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	)
}

// captureScreen — записать виртуальный дисплей в MP4. Кодировщик завершается
// сам по истечении длительности; единственный критерий успеха — exit code 0.
func captureScreen(sup *ProcessSupervisor, cfg Config, durationSeconds int, outputPath string) error {
	cmd := encoderCommand(cfg, durationSeconds, outputPath)

	// Прогресс ffmpeg идёт в stderr; он нужен только для наблюдаемости
	progress := &encoderProgressWriter{}
	cmd.Stderr = progress

	proc, err := sup.Start("ffmpeg", cmd)
	if err != nil {
		return fmt.Errorf("failed to start encoder: %w", err)
	}

	log.Printf("🎥 Capturing %s for %ds → %s", cfg.Display, durationSeconds, outputPath)

	waitCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(durationSeconds)*time.Second+encoderGrace)
	defer cancel()

	waitErr := proc.Wait(waitCtx)

	if !proc.Exited() {
		return fmt.Errorf("encoder did not finish in time: %w", waitErr)
	}

	if code := proc.ExitCode(); code != 0 {
		log.Printf("❌ Encoder failed, last output: %s", progress.lastLine())
		return &EncoderError{ExitCode: code}
	}

	// Проверить что файл реально появился
	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		return ErrArtifactMissing
	}

	log.Printf("✅ Capture completed: %s (%d bytes)", outputPath, info.Size())
	return nil
}

// encoderProgressWriter логирует прогресс-строки ffmpeg построчно
type encoderProgressWriter struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	last string
}

func (w *encoderProgressWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Неполная строка — вернуть в буфер до следующего Write
			w.buf.WriteString(line)
			break
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		w.last = line

		if strings.Contains(line, "frame=") || strings.Contains(line, "time=") {
			log.Printf("🎥 FFmpeg: %s", line)
		}
	}
	return len(p), nil
}

func (w *encoderProgressWriter) lastLine() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// generateThumbnail — кадр из середины ролика; ошибка не критична
func generateThumbnail(videoPath, thumbPath string, durationSeconds int) error {
	seek := durationSeconds / 2
	if seek < 1 {
		seek = 1
	}

	cmd := exec.Command("ffmpeg",
		"-i", videoPath,
		"-ss", strconv.Itoa(seek),
		"-vframes", "1",
		"-vf", "scale=480:270",
		"-q:v", "2",
		"-y",
		thumbPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("thumbnail generation failed: %v (%s)", err, bytes.TrimSpace(out))
	}

	log.Printf("🖼️ Thumbnail generated: %s", thumbPath)
	return nil
}

package main

import (
	"errors"
	"fmt"
	"time"
)

// RecordingRequest — тело запроса POST /record-video
type RecordingRequest struct {
	VideoID    string `json:"videoId"`
	Duration   int    `json:"duration"` // секунды, 1..300
	PreviewURL string `json:"previewUrl,omitempty"`
}

// RecordingResult — успешный результат задания
type RecordingResult struct {
	Success  bool   `json:"success"`
	VideoID  string `json:"videoId"`
	Duration int    `json:"duration"`
	FileSize int64  `json:"fileSize"`
	URL      string `json:"url,omitempty"`
}

// Recording — запись метаданных в БД
type Recording struct {
	ID        int       `json:"id"`
	VideoID   string    `json:"video_id"`
	Duration  int       `json:"duration_seconds"`
	FileSize  int64     `json:"file_size_bytes"`
	URL       string    `json:"url"`
	Status    string    `json:"status"` // recording, ready, failed
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobState — текущая фаза задания; одновременно существует ровно одно
type JobState string

const (
	StateIdle         JobState = "idle"
	StateProvisioning JobState = "provisioning"
	StateLaunching    JobState = "launching_render_host"
	StateProbing      JobState = "probing_readiness"
	StateCapturing    JobState = "capturing"
	StatePublishing   JobState = "publishing"
	StateCleaningUp   JobState = "cleaning_up"
	StateCompleted    JobState = "completed"
	StateFailed       JobState = "failed"
)

var (
	ErrRecordingInProgress = errors.New("recording already in progress")
	ErrDisplayStartFailed  = errors.New("virtual display exited during settle window")
	ErrBrowserExited       = errors.New("render host exited during readiness probing")
	ErrReadinessTimeout    = errors.New("render host never became ready")
	ErrArtifactMissing     = errors.New("encoder reported success but output file is missing or empty")
)

// ValidationError — плохой запрос, отклоняется до допуска
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// EncoderError — ffmpeg завершился с ненулевым кодом
type EncoderError struct {
	ExitCode int
}

func (e *EncoderError) Error() string {
	return fmt.Sprintf("encoder exited with code %d", e.ExitCode)
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"web/page-recorder/kafka"
)

// Непроданный артефакт живёт это окно до отложенного удаления
var artifactRetention = 60 * time.Second

// Recorder — оркестратор заданий записи. Одновременно выполняется
// не более одного задания; параллельные запросы отклоняются сразу.
type Recorder struct {
	cfg     Config
	storage *StorageManager
	db      *DatabaseManager
	events  *kafka.Producer

	recording atomic.Bool  // single-flight допуск
	state     atomic.Value // JobState

	mu             sync.Mutex
	supervisor     *ProcessSupervisor // супервизор текущего задания
	deferredDelete *time.Timer        // отложенное удаление артефакта

	retention time.Duration

	// Этапы вынесены в поля: тесты подменяют внешние процессы заглушками
	startDisplay  func(sup *ProcessSupervisor) (*ManagedProcess, error)
	launchBrowser func(sup *ProcessSupervisor, url string) (*ManagedProcess, error)
	waitReady     func(proc *ManagedProcess) error
	capture       func(sup *ProcessSupervisor, durationSeconds int, outputPath string) error
	publish       func(videoID, localPath string, fileSize int64, duration int) (string, error)
}

func NewRecorder(cfg Config, storage *StorageManager, db *DatabaseManager, events *kafka.Producer) *Recorder {
	r := &Recorder{
		cfg:       cfg,
		storage:   storage,
		db:        db,
		events:    events,
		retention: artifactRetention,
	}
	r.state.Store(StateIdle)

	r.startDisplay = func(sup *ProcessSupervisor) (*ManagedProcess, error) {
		return startVirtualDisplay(sup, cfg.Display)
	}
	r.launchBrowser = func(sup *ProcessSupervisor, url string) (*ManagedProcess, error) {
		profileDir := filepath.Join(cfg.ProfileBaseDir, "profile-"+uuid.NewString())
		return launchRenderHost(sup, cfg, url, profileDir)
	}
	r.waitReady = func(proc *ManagedProcess) error {
		return waitForReadiness(proc, cfg)
	}
	r.capture = func(sup *ProcessSupervisor, durationSeconds int, outputPath string) error {
		return captureScreen(sup, cfg, durationSeconds, outputPath)
	}
	r.publish = r.publishArtifact

	return r
}

func (r *Recorder) IsRecording() bool {
	return r.recording.Load()
}

func (r *Recorder) State() JobState {
	return r.state.Load().(JobState)
}

// ActiveProcesses — живые процессы текущего задания (для /health)
func (r *Recorder) ActiveProcesses() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.supervisor == nil {
		return 0
	}
	return r.supervisor.ActiveCount()
}

func (r *Recorder) setState(s JobState) {
	r.state.Store(s)
	log.Printf("➡️ Job state: %s", s)
}

// validate — проверка до допуска, без побочных эффектов
func (r *Recorder) validate(req *RecordingRequest) error {
	if req.VideoID == "" {
		return newValidationError("videoId is required")
	}
	if req.Duration < 1 || req.Duration > 300 {
		return newValidationError("duration must be between 1 and 300 seconds")
	}
	if req.PreviewURL == "" {
		if r.cfg.PreviewTemplate == "" {
			return newValidationError("previewUrl is required")
		}
		req.PreviewURL = fmt.Sprintf(r.cfg.PreviewTemplate, req.VideoID)
	}
	return nil
}

// Record — принять и выполнить задание записи. Возвращается синхронно,
// после полного прохода конечного автомата и очистки.
func (r *Recorder) Record(req RecordingRequest) (*RecordingResult, error) {
	if err := r.validate(&req); err != nil {
		return nil, err
	}

	// Single-flight допуск: занят — отклоняем без каких-либо побочных эффектов
	if !r.recording.CompareAndSwap(false, true) {
		return nil, ErrRecordingInProgress
	}
	defer r.recording.Store(false)

	sup := NewProcessSupervisor()
	r.mu.Lock()
	r.supervisor = sup
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.supervisor = nil
		r.mu.Unlock()
	}()

	log.Printf("🎬 Recording job accepted: %s (%ds) ← %s", req.VideoID, req.Duration, req.PreviewURL)

	r.recordInitialMetadata(req)
	r.sendEvent(req.VideoID, "started", "", 0, req.Duration, nil)

	result, err := r.run(req, sup)
	if err != nil {
		r.setState(StateFailed)
		r.updateMetadataStatus(req.VideoID, "failed")
		r.sendEvent(req.VideoID, "failed", "", 0, req.Duration, err)
		log.Printf("❌ Recording job failed: %s: %v", req.VideoID, err)
		return nil, err
	}

	r.setState(StateCompleted)
	r.sendEvent(req.VideoID, "completed", result.URL, result.FileSize, req.Duration, nil)
	log.Printf("✅ Recording job completed: %s (%d bytes)", req.VideoID, result.FileSize)
	return result, nil
}

// run — конечный автомат этапов; очистка выполняется безусловно,
// на любом пути выхода
func (r *Recorder) run(req RecordingRequest, sup *ProcessSupervisor) (result *RecordingResult, err error) {
	outputPath := filepath.Join(r.cfg.OutputDir, req.VideoID+".mp4")
	captured := false
	published := false

	defer func() {
		r.setState(StateCleaningUp)
		r.cleanup(sup, outputPath, captured, published)
	}()

	r.setState(StateProvisioning)
	if _, err = r.startDisplay(sup); err != nil {
		return nil, fmt.Errorf("display provisioning failed: %w", err)
	}

	r.setState(StateLaunching)
	browser, err := r.launchBrowser(sup, req.PreviewURL)
	if err != nil {
		return nil, fmt.Errorf("render host launch failed: %w", err)
	}

	r.setState(StateProbing)
	if err = r.waitReady(browser); err != nil {
		return nil, fmt.Errorf("readiness probing failed: %w", err)
	}

	r.setState(StateCapturing)
	if err = r.capture(sup, req.Duration, outputPath); err != nil {
		return nil, fmt.Errorf("capture failed: %w", err)
	}

	info, statErr := os.Stat(outputPath)
	if statErr != nil || info.Size() == 0 {
		return nil, ErrArtifactMissing
	}
	captured = true

	r.setState(StatePublishing)
	url, err := r.publish(req.VideoID, outputPath, info.Size(), req.Duration)
	if err != nil {
		return nil, fmt.Errorf("publishing failed: %w", err)
	}
	published = true

	return &RecordingResult{
		Success:  true,
		VideoID:  req.VideoID,
		Duration: req.Duration,
		FileSize: info.Size(),
		URL:      url,
	}, nil
}

// cleanup — всегда добивает процессы; судьба локального файла зависит
// от того, докуда дошло задание
func (r *Recorder) cleanup(sup *ProcessSupervisor, artifactPath string, captured, published bool) {
	sup.TerminateAll()

	switch {
	case published:
		// Файл уже в хранилище, локальная копия не нужна
		removeArtifact(artifactPath)
	case !captured:
		// Частичный файл от упавшего кодировщика
		removeArtifact(artifactPath)
	default:
		// Публикация не удалась: окно удержания для ручного подбора файла
		log.Printf("⏳ Keeping %s for %v before deletion", artifactPath, r.retention)
		r.scheduleDeferredDelete(artifactPath)
	}
}

// scheduleDeferredDelete — fire-and-forget, ответ задания его не ждёт
func (r *Recorder) scheduleDeferredDelete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deferredDelete = time.AfterFunc(r.retention, func() {
		removeArtifact(path)
	})
}

func removeArtifact(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Failed to cleanup local file %s: %v", path, err)
		}
		return
	}
	log.Printf("🧹 Cleaned up local file: %s", path)
}

// publishArtifact — загрузка в хранилище, подписанная ссылка, метаданные.
// Ошибка метаданных не валит задание: артефакт уже надёжно сохранён.
func (r *Recorder) publishArtifact(videoID, localPath string, fileSize int64, duration int) (string, error) {
	objectName, err := r.storage.UploadRecording(videoID, localPath)
	if err != nil {
		return "", err
	}

	// Превью-кадр — дополнительный артефакт, его потеря не критична
	thumbPath := filepath.Join(r.cfg.OutputDir, videoID+".jpg")
	if err := generateThumbnail(localPath, thumbPath, duration); err != nil {
		log.Printf("⚠️ %v", err)
	} else {
		if err := r.storage.UploadThumbnail(videoID, thumbPath); err != nil {
			log.Printf("⚠️ %v", err)
		}
		removeArtifact(thumbPath)
	}

	url, err := r.storage.GetPresignedURL(objectName, signedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign artifact URL: %w", err)
	}

	if r.db != nil {
		if err := r.db.UpdateRecordingComplete(videoID, url, fileSize); err != nil {
			log.Printf("⚠️ Metadata update failed for %s (non-fatal): %v", videoID, err)
		}
	}

	return url, nil
}

func (r *Recorder) recordInitialMetadata(req RecordingRequest) {
	if r.db == nil {
		return
	}
	if err := r.db.CreateRecording(req.VideoID, req.Duration); err != nil {
		log.Printf("⚠️ Failed to create recording metadata for %s: %v", req.VideoID, err)
	}
}

func (r *Recorder) updateMetadataStatus(videoID, status string) {
	if r.db == nil {
		return
	}
	if err := r.db.UpdateRecordingStatus(videoID, status); err != nil {
		log.Printf("⚠️ Failed to update recording status for %s: %v", videoID, err)
	}
}

func (r *Recorder) sendEvent(videoID, status, url string, fileSize int64, duration int, jobErr error) {
	if r.events == nil {
		return
	}

	event := kafka.RecordingEvent{
		VideoID:       videoID,
		Status:        status,
		URL:           url,
		FileSizeBytes: fileSize,
		Duration:      duration,
		Timestamp:     time.Now(),
	}
	if jobErr != nil {
		event.ErrorMsg = jobErr.Error()
	}

	// Best-effort: события не влияют на результат задания
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := r.events.SendRecordingEvent(ctx, event); err != nil {
			log.Printf("⚠️ Failed to send %s event for %s: %v", status, videoID, err)
		}
	}()
}

// Shutdown — вызывается по внешнему сигналу завершения: добить процессы
// выполняющегося задания, чтобы не оставить сирот
func (r *Recorder) Shutdown() {
	r.mu.Lock()
	sup := r.supervisor
	if r.deferredDelete != nil {
		r.deferredDelete.Stop()
	}
	r.mu.Unlock()

	if sup != nil {
		log.Println("🧹 Terminating processes of in-flight job...")
		sup.TerminateAll()
	}
}

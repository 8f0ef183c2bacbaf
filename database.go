package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DatabaseManager struct {
	pool *pgxpool.Pool
}

func NewDatabaseManager() (*DatabaseManager, error) {
	dbURL := buildDatabaseURL()

	log.Printf("📊 Connecting to database...")

	if err := runMigrations(dbURL); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Сервис однозадачный, большой пул не нужен
	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connected successfully")
	return &DatabaseManager{pool: pool}, nil
}

func runMigrations(dbURL string) error {
	log.Println("🔄 Running database migrations...")

	migrationsPath := "./migrations"
	if _, err := os.ReadDir(migrationsPath); err != nil {
		// В контейнере миграции лежат рядом с бинарником
		for _, altPath := range []string{"/app/migrations", "migrations"} {
			if _, altErr := os.ReadDir(altPath); altErr == nil {
				migrationsPath = altPath
				break
			}
		}
	}

	sourceURL := fmt.Sprintf("file://%s", migrationsPath)

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Println("📊 No new migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Printf("⚠️ Could not get migration version: %v", err)
	} else {
		log.Printf("✅ Database migrations completed (version: %d, dirty: %v)", version, dirty)
	}

	return nil
}

func buildDatabaseURL() string {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL
	}

	host := getEnv("DB_HOST", "postgres")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "example")
	dbname := getEnv("DB_NAME", "recordings")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname)
}

// CreateRecording — начальная запись при допуске задания
func (dm *DatabaseManager) CreateRecording(videoID string, duration int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `
        INSERT INTO recordings (video_id, duration_seconds, status, created_at, updated_at)
        VALUES ($1, $2, 'recording', NOW(), NOW())
        ON CONFLICT (video_id) DO UPDATE SET
            duration_seconds = EXCLUDED.duration_seconds,
            status = 'recording',
            updated_at = NOW()`

	if _, err := dm.pool.Exec(ctx, query, videoID, duration); err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}

	log.Printf("📊 DB: Created/Updated recording %s (duration: %ds)", videoID, duration)
	return nil
}

// UpdateRecordingStatus — смена статуса (recording/ready/failed)
func (dm *DatabaseManager) UpdateRecordingStatus(videoID, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        UPDATE recordings
        SET status = $1, updated_at = NOW()
        WHERE video_id = $2`

	result, err := dm.pool.Exec(ctx, query, status, videoID)
	if err != nil {
		return fmt.Errorf("failed to update recording status: %w", err)
	}

	log.Printf("📊 DB: Updated %s status to %s (rows affected: %d)", videoID, status, result.RowsAffected())
	return nil
}

// UpdateRecordingComplete — финальные данные после публикации
func (dm *DatabaseManager) UpdateRecordingComplete(videoID, url string, fileSize int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := `
        UPDATE recordings SET
            url = $2,
            file_size_bytes = $3,
            status = 'ready',
            updated_at = NOW()
        WHERE video_id = $1`

	result, err := dm.pool.Exec(ctx, query, videoID, url, fileSize)
	if err != nil {
		return fmt.Errorf("failed to update recording complete: %w", err)
	}

	log.Printf("📊 DB: Updated recording complete for %s (rows affected: %d)", videoID, result.RowsAffected())
	return nil
}

func (dm *DatabaseManager) Close() {
	if dm.pool != nil {
		dm.pool.Close()
		log.Println("📊 Database connection closed")
	}
}

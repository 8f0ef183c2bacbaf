package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Подписанная ссылка живёт ровно час
const signedURLExpiry = 3600 * time.Second

type StorageManager struct {
	client *minio.Client
	bucket string
}

func NewStorageManager() (*StorageManager, error) {
	endpoint := getEnv("MINIO_ENDPOINT", "minio:9000")
	accessKey := getEnv("MINIO_ACCESS_KEY", "minioadmin")
	secretKey := getEnv("MINIO_SECRET_KEY", "minioadmin123")
	bucket := getEnv("MINIO_BUCKET", "recordings")

	log.Printf("📁 Connecting to MinIO: %s, bucket: %s", endpoint, bucket)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false, // HTTP для локальной разработки
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	sm := &StorageManager{
		client: client,
		bucket: bucket,
	}

	if err := sm.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	log.Println("✅ MinIO storage manager initialized")
	return sm, nil
}

func (sm *StorageManager) ensureBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := sm.client.BucketExists(ctx, sm.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		log.Printf("📁 Creating bucket: %s", sm.bucket)
		if err := sm.client.MakeBucket(ctx, sm.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("✅ Created bucket: %s", sm.bucket)
	}

	return nil
}

func recordingObjectName(videoID string) string {
	return fmt.Sprintf("%s/video.mp4", videoID)
}

func thumbnailObjectName(videoID string) string {
	return fmt.Sprintf("%s/thumbnail.jpg", videoID)
}

// UploadRecording — загрузить готовый MP4 в хранилище
func (sm *StorageManager) UploadRecording(videoID, localPath string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := os.Stat(localPath); os.IsNotExist(err) {
		return "", fmt.Errorf("recording file not found: %s", localPath)
	}

	objectName := recordingObjectName(videoID)

	info, err := sm.client.FPutObject(ctx, sm.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType:  "video/mp4",
		CacheControl: "private, max-age=3600",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload recording: %w", err)
	}

	log.Printf("📁 Uploaded recording: %s (size: %d bytes)", objectName, info.Size)
	return objectName, nil
}

// UploadThumbnail — превью-кадр рядом с видео, потеря не критична
func (sm *StorageManager) UploadThumbnail(videoID, localPath string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := os.Stat(localPath); err != nil {
		return fmt.Errorf("thumbnail file not found: %s", localPath)
	}

	objectName := thumbnailObjectName(videoID)

	info, err := sm.client.FPutObject(ctx, sm.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType:  "image/jpeg",
		CacheControl: "private, max-age=3600",
	})
	if err != nil {
		return fmt.Errorf("failed to upload thumbnail: %w", err)
	}

	log.Printf("📁 Uploaded thumbnail: %s (size: %d bytes)", objectName, info.Size)
	return nil
}

// GetPresignedURL — подписанная временная ссылка на объект
func (sm *StorageManager) GetPresignedURL(objectName string, expiry time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url, err := sm.client.PresignedGetObject(ctx, sm.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}


package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectNames(t *testing.T) {
	assert.Equal(t, "v1/video.mp4", recordingObjectName("v1"))
	assert.Equal(t, "v1/thumbnail.jpg", thumbnailObjectName("v1"))
}

func TestSignedURLExpiryIsOneHour(t *testing.T) {
	assert.Equal(t, time.Hour, signedURLExpiry)
}

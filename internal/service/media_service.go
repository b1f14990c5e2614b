package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/storage"
)

// Common media errors.
var (
	ErrMediaTooLarge    = errors.New("media exceeds the maximum upload size")
	ErrUnsupportedMedia = errors.New("unsupported media content type")
	ErrEmptyMedia       = errors.New("media payload is empty")
)

// allowedAudioTypes is the set of content types accepted for speaking
// answers: what MediaRecorder emits in current browsers plus the common
// pre-recorded formats.
var allowedAudioTypes = map[string]string{
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/mpeg":  ".mp3",
	"audio/mp4":   ".m4a",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
}

// MediaService validates and stores captured speaking audio. It is the
// session.Uploader behind every recorder; the token it returns is what
// lands in the answer map as the speaking answer value.
type MediaService struct {
	provider storage.Provider
	maxBytes int64
	log      zerolog.Logger
}

// NewMediaService creates a new MediaService.
func NewMediaService(provider storage.Provider, maxBytes int64, log zerolog.Logger) *MediaService {
	return &MediaService{
		provider: provider,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "media_service").Logger(),
	}
}

// Upload validates the audio blob, stores it under a collision-free
// object key, and returns the serialized answer token "audio:{key}".
func (s *MediaService) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyMedia
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrMediaTooLarge
	}

	base := strings.Split(contentType, ";")[0]
	ext, ok := allowedAudioTypes[strings.TrimSpace(strings.ToLower(base))]
	if !ok {
		return "", ErrUnsupportedMedia
	}

	objectKey := fmt.Sprintf("speaking/%s%s", uuid.New(), safeExt(filename, ext))
	if _, err := storage.PutBytes(ctx, s.provider, objectKey, data, base); err != nil {
		return "", fmt.Errorf("store media: %w", err)
	}

	s.log.Debug().
		Str("object_key", objectKey).
		Int("bytes", len(data)).
		Msg("Speaking audio stored")
	return "audio:" + objectKey, nil
}

// URL resolves a stored token back to a servable URL.
func (s *MediaService) URL(token string) string {
	key := strings.TrimPrefix(token, "audio:")
	return s.provider.URL(key)
}

// safeExt keeps the original extension when it matches what the content
// type implies, otherwise falls back to the implied one. The original
// filename never becomes part of the object key.
func safeExt(filename, implied string) string {
	ext := strings.ToLower(path.Ext(filename))
	for _, known := range allowedAudioTypes {
		if ext == known {
			return ext
		}
	}
	return implied
}

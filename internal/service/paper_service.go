package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/linguaprep/linguaprep-backend/internal/config"
	"github.com/linguaprep/linguaprep-backend/internal/model"
	"github.com/linguaprep/linguaprep-backend/internal/repository"
)

// Common paper errors.
var (
	ErrExamNotPublished = errors.New("exam is not published")
	ErrNoQuestions      = errors.New("exam has no questions")
)

// PaperService owns the exam paper fast lane: published papers, their
// durations, and their grading keys live in Redis so the attempt hot
// path never touches PostgreSQL.
type PaperService struct {
	paperRepo *repository.PaperRepository
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewPaperService creates a new PaperService.
func NewPaperService(paperRepo *repository.PaperRepository, rdb *redis.Client, log zerolog.Logger) *PaperService {
	return &PaperService{
		paperRepo: paperRepo,
		rdb:       rdb,
		log:       log.With().Str("component", "paper_service").Logger(),
	}
}

// Publish transitions a draft exam to PUBLISHED and warms its cache.
func (s *PaperService) Publish(ctx context.Context, examID uuid.UUID) error {
	exam, err := s.paperRepo.GetExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusDraft {
		return fmt.Errorf("exam status is %s, expected DRAFT", exam.Status)
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		return err
	}

	if err := s.paperRepo.UpdateExamStatus(ctx, examID, model.ExamStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("exam_id", examID.String()).Msg("Exam published")
	return nil
}

// WarmExamCache loads an exam's paper, duration, and grading key from
// PostgreSQL into Redis. The paper never carries correct answers; the
// key hash is a separate cache entry read only by the grading worker.
func (s *PaperService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	paper, err := s.paperRepo.GetPaper(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("get paper: %w", err)
	}
	if len(paper.Sections) == 0 {
		return ErrNoQuestions
	}

	paperJSON, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	keys, err := s.paperRepo.GetGradingKeys(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("get grading keys: %w", err)
	}

	keyHash := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		encoded, err := json.Marshal(k)
		if err != nil {
			return fmt.Errorf("marshal grading key: %w", err)
		}
		keyHash[k.QuestionID.String()] = encoded
	}

	examID := exam.ID.String()

	// Cache all three atomically via pipeline.
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamPaperKey(examID), paperJSON, 0)
	pipe.Set(ctx, config.CacheKey.ExamDurationKey(examID), exam.DurationSec, 0)
	pipe.Del(ctx, config.CacheKey.ExamGradingKey(examID))
	if len(keyHash) > 0 {
		pipe.HSet(ctx, config.CacheKey.ExamGradingKey(examID), keyHash)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", examID).
		Int("sections", len(paper.Sections)).
		Int("keys", len(keys)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all published exams into Redis on startup so
// the first candidate of the day never hits a cold cache.
func (s *PaperService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.paperRepo.ListExamsByStatus(ctx, model.ExamStatusPublished)
	if err != nil {
		return fmt.Errorf("list published exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No published exams to prewarm")
		return nil
	}

	warmed := 0
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// GetPaper retrieves the cached candidate-facing paper, falling back to
// PostgreSQL with a self-heal on cache miss.
func (s *PaperService) GetPaper(ctx context.Context, examID uuid.UUID) (*model.Paper, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.ExamPaperKey(examID.String())).Bytes()
	if err == nil {
		var paper model.Paper
		if err := json.Unmarshal(data, &paper); err != nil {
			return nil, fmt.Errorf("unmarshal paper: %w", err)
		}
		return &paper, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	// Cache miss. Only published exams are servable.
	exam, dbErr := s.paperRepo.GetExam(ctx, examID)
	if dbErr != nil {
		return nil, fmt.Errorf("get exam: %w", dbErr)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		return nil, err
	}
	return s.paperRepo.GetPaper(ctx, examID)
}

// GetDurationSec retrieves the cached exam duration, falling back to
// PostgreSQL with a self-heal on cache miss.
func (s *PaperService) GetDurationSec(ctx context.Context, examID uuid.UUID) (int, error) {
	val, err := s.rdb.Get(ctx, config.CacheKey.ExamDurationKey(examID.String())).Result()
	if err == nil {
		return strconv.Atoi(val)
	}
	if !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("get duration: %w", err)
	}

	exam, dbErr := s.paperRepo.GetExam(ctx, examID)
	if dbErr != nil {
		return 0, fmt.Errorf("get exam: %w", dbErr)
	}
	_ = s.rdb.Set(ctx, config.CacheKey.ExamDurationKey(examID.String()), exam.DurationSec, 0)
	return exam.DurationSec, nil
}

// GetGradingKeys retrieves the grading key hash from Redis for the
// grading worker, falling back to PostgreSQL if the cache was evicted.
func (s *PaperService) GetGradingKeys(ctx context.Context, examID uuid.UUID) (map[uuid.UUID]model.GradingKey, error) {
	raw, err := s.rdb.HGetAll(ctx, config.CacheKey.ExamGradingKey(examID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get grading keys: %w", err)
	}

	if len(raw) == 0 {
		keys, dbErr := s.paperRepo.GetGradingKeys(ctx, examID)
		if dbErr != nil {
			return nil, fmt.Errorf("grading keys not cached, db fallback failed: %w", dbErr)
		}
		out := make(map[uuid.UUID]model.GradingKey, len(keys))
		for _, k := range keys {
			out[k.QuestionID] = k
		}
		return out, nil
	}

	out := make(map[uuid.UUID]model.GradingKey, len(raw))
	for id, encoded := range raw {
		qid, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		var k model.GradingKey
		if err := json.Unmarshal([]byte(encoded), &k); err != nil {
			return nil, fmt.Errorf("unmarshal grading key %s: %w", id, err)
		}
		out[qid] = k
	}
	return out, nil
}

// ListPublished returns published exams for the candidate lobby.
func (s *PaperService) ListPublished(ctx context.Context) ([]model.Exam, error) {
	return s.paperRepo.ListExamsByStatus(ctx, model.ExamStatusPublished)
}

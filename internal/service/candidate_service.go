package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/linguaprep/linguaprep-backend/internal/model"
	"github.com/linguaprep/linguaprep-backend/internal/repository"
)

// CandidateService handles candidate lookup and login.
type CandidateService struct {
	candidateRepo *repository.CandidateRepository
	auth          *AuthService
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(candidateRepo *repository.CandidateRepository, auth *AuthService) *CandidateService {
	return &CandidateService{candidateRepo: candidateRepo, auth: auth}
}

// Login verifies credentials and issues a JWT. The credential check runs
// before the single-login check so an attacker cannot probe which
// accounts are currently online.
func (s *CandidateService) Login(ctx context.Context, email, password string) (string, *model.Candidate, error) {
	candidate, err := s.candidateRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get candidate: %w", err)
	}

	if err := s.auth.CheckPassword(candidate.PasswordHash, password); err != nil {
		return "", nil, err
	}

	token, err := s.auth.GenerateToken(ctx, candidate.ID)
	if err != nil {
		return "", nil, err
	}

	return token, candidate, nil
}

// Get retrieves a candidate by id.
func (s *CandidateService) Get(ctx context.Context, id int) (*model.Candidate, error) {
	return s.candidateRepo.GetByID(ctx, id)
}

// Register creates a candidate with a hashed password. Used by the
// create-candidate and seed-candidates CLI tools.
func (s *CandidateService) Register(ctx context.Context, email, name, password string) (*model.Candidate, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.candidateRepo.Create(ctx, email, name, hash)
}

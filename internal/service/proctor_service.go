package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/repository"
)

// ProctorService handles proctor account logic.
type ProctorService struct {
	proctorRepo *repository.ProctorRepository
	authService *AuthService
}

// NewProctorService creates a new ProctorService.
func NewProctorService(proctorRepo *repository.ProctorRepository, authService *AuthService) *ProctorService {
	return &ProctorService{proctorRepo: proctorRepo, authService: authService}
}

// Login verifies credentials and mints a JWT. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *ProctorService) Login(ctx context.Context, email, password string) (*model.Proctor, string, error) {
	proctor, err := s.proctorRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get proctor: %w", err)
	}

	if err := s.authService.CheckPassword(proctor.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.authService.GenerateProctorToken(proctor)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return proctor, token, nil
}

// GetByID retrieves a proctor by ID.
func (s *ProctorService) GetByID(ctx context.Context, id int) (*model.Proctor, error) {
	return s.proctorRepo.GetByID(ctx, id)
}

// Create registers a new proctor account with a hashed password.
func (s *ProctorService) Create(ctx context.Context, p *model.Proctor, password string) error {
	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	p.PasswordHash = hash
	return s.proctorRepo.Create(ctx, p)
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/quizgate/quizgate-backend/internal/model"
	"github.com/quizgate/quizgate-backend/internal/repository"
)

// StudentService handles student account business logic.
type StudentService struct {
	studentRepo *repository.StudentRepository
	resultRepo  *repository.ResultRepository
	authService *AuthService
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo *repository.StudentRepository, resultRepo *repository.ResultRepository, authService *AuthService) *StudentService {
	return &StudentService{
		studentRepo: studentRepo,
		resultRepo:  resultRepo,
		authService: authService,
	}
}

// Login verifies credentials and issues a JWT. A student can hold only one
// active login session at a time.
func (s *StudentService) Login(ctx context.Context, username, password string) (*model.Student, string, error) {
	student, err := s.studentRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get student: %w", err)
	}

	if err := s.authService.CheckPassword(student.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.authService.GenerateStudentToken(ctx, student.ID)
	if err != nil {
		return nil, "", err
	}
	return student, token, nil
}

// Logout invalidates the student's active login session.
func (s *StudentService) Logout(ctx context.Context, studentID int) error {
	return s.authService.ResetStudentSession(ctx, studentID)
}

// Profile retrieves a student by ID.
func (s *StudentService) Profile(ctx context.Context, studentID int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, studentID)
}

// Results retrieves a page of the student's completed quiz results, newest
// first, along with the total result count.
func (s *StudentService) Results(ctx context.Context, studentID int, limit, offset int) ([]model.QuizResult, int, error) {
	return s.resultRepo.ListByStudent(ctx, studentID, limit, offset)
}

// Create registers a new student account. Used by the seeding CLIs.
func (s *StudentService) Create(ctx context.Context, username, name, password string) (*model.Student, error) {
	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.studentRepo.Create(ctx, username, name, hash)
}

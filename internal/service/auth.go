package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/model"
	"github.com/classroom-assistant/classroom-go/internal/repository"
	"github.com/classroom-assistant/classroom-go/internal/util"
)

type LoginResult struct {
	Record  model.SessionRecord
	Teacher *model.Teacher
}

type AuthService struct {
	teacherRepo  repository.TeacherRepository
	studentRepo  repository.StudentRepository
	presenceRepo repository.PresenceRepository
	tokens       *TokenService
	google       GoogleVerifier
}

func NewAuthService(
	teacherRepo repository.TeacherRepository,
	studentRepo repository.StudentRepository,
	presenceRepo repository.PresenceRepository,
	tokens *TokenService,
) *AuthService {
	return &AuthService{
		teacherRepo:  teacherRepo,
		studentRepo:  studentRepo,
		presenceRepo: presenceRepo,
		tokens:       tokens,
	}
}

// WithGoogle enables teacher sign-in with Google ID tokens.
func (s *AuthService) WithGoogle(v GoogleVerifier) *AuthService {
	s.google = v
	return s
}

func (s *AuthService) RegisterTeacher(ctx context.Context, email, password, name string) (*model.Teacher, error) {
	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password").WithCause(err)
	}

	teacher, err := s.teacherRepo.Create(ctx, model.CreateTeacherParams{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperrors.AlreadyExists("Teacher")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Str("teacherId", teacher.ID).Msg("teacher registered")
	return teacher, nil
}

func (s *AuthService) LoginTeacher(ctx context.Context, email, password string) (*LoginResult, error) {
	teacher, err := s.teacherRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if teacher == nil || !util.CheckPasswordHash(password, teacher.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}

	token, err := s.tokens.Issue(teacher.ID, model.RoleTeacher, teacher.Name, teacher.Email)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token").WithCause(err)
	}

	if err := s.teacherRepo.UpdateLastLogin(ctx, teacher.ID); err != nil {
		log.Warn().Err(err).Str("teacherId", teacher.ID).Msg("failed to update last login")
	}

	return &LoginResult{
		Record: model.SessionRecord{
			UserID: teacher.ID,
			Name:   teacher.Name,
			Role:   model.RoleTeacher,
			Token:  token,
			Email:  teacher.Email,
		},
		Teacher: teacher,
	}, nil
}

// LoginTeacherGoogle signs a teacher in with a Google ID token, creating the
// account on first use or linking it to the teacher with the same email.
func (s *AuthService) LoginTeacherGoogle(ctx context.Context, idToken string) (*LoginResult, error) {
	if s.google == nil {
		return nil, apperrors.Internal("Google sign-in is not configured")
	}

	identity, err := s.google.Verify(ctx, idToken)
	if errors.Is(err, ErrGoogleTokenRejected) {
		log.Debug().Err(err).Msg("google id token rejected")
		return nil, apperrors.New(apperrors.ErrCodeInvalidCredentials, "Invalid Google credential")
	}
	if err != nil {
		return nil, apperrors.External("google", err)
	}
	if identity.Email == "" || identity.Subject == "" {
		return nil, apperrors.ValidationError("Google credential is missing email or account ID")
	}

	teacher, err := s.teacherRepo.UpsertGoogle(ctx, model.UpsertGoogleTeacherParams{
		ID:       uuid.NewString(),
		Email:    identity.Email,
		Name:     identity.Name,
		GoogleID: identity.Subject,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperrors.New(apperrors.ErrCodeConflict, "Google account is linked to another teacher")
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}

	token, err := s.tokens.Issue(teacher.ID, model.RoleTeacher, teacher.Name, teacher.Email)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token").WithCause(err)
	}

	log.Info().Str("teacherId", teacher.ID).Msg("teacher signed in with google")
	return &LoginResult{
		Record: model.SessionRecord{
			UserID: teacher.ID,
			Name:   teacher.Name,
			Role:   model.RoleTeacher,
			Token:  token,
			Email:  teacher.Email,
		},
		Teacher: teacher,
	}, nil
}

func (s *AuthService) LoginStudent(ctx context.Context, userID, password string) (*LoginResult, error) {
	student, err := s.studentRepo.FindByUserID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if student == nil || !util.CheckPasswordHash(password, student.PasswordHash) {
		return nil, apperrors.New(apperrors.ErrCodeInvalidCredentials, "Invalid user ID or password")
	}

	token, err := s.tokens.Issue(student.UserID, model.RoleStudent, student.Name, "")
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token").WithCause(err)
	}

	if err := s.presenceRepo.MarkLoggedIn(ctx, student); err != nil {
		log.Warn().Err(err).Str("userId", student.UserID).Msg("failed to record student login")
	}

	return &LoginResult{
		Record: model.SessionRecord{
			UserID:            student.UserID,
			Name:              student.Name,
			Role:              model.RoleStudent,
			Token:             token,
			PreferredLanguage: student.PreferredLanguage,
		},
	}, nil
}

// Logout removes the student from the active list.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	removed, err := s.presenceRepo.MarkLoggedOut(ctx, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !removed {
		return apperrors.NotFound("Active session")
	}
	return nil
}

func (s *AuthService) VerifyToken(tokenString string) (*model.Claims, error) {
	return s.tokens.Verify(tokenString)
}

func (s *AuthService) TeacherProfile(ctx context.Context, teacherID string) (*model.Teacher, error) {
	teacher, err := s.teacherRepo.FindByID(ctx, teacherID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if teacher == nil {
		return nil, apperrors.NotFound("Teacher")
	}
	return teacher, nil
}

func (s *AuthService) ActiveStudents(ctx context.Context) ([]model.StudentPresence, error) {
	students, err := s.presenceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return students, nil
}

package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/config"
	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/model"
	"github.com/classroom-assistant/classroom-go/internal/repository"
	"github.com/classroom-assistant/classroom-go/internal/sse"
	"github.com/classroom-assistant/classroom-go/internal/util"
)

const (
	EventBroadcast  = "broadcast"
	EventClassEnded = "class_ended"
)

type Publisher interface {
	Publish(ctx context.Context, joinCode string, event sse.Event) error
}

type JoinResult struct {
	Classroom     *model.Classroom
	AlreadyJoined bool
}

type BroadcastParams struct {
	JoinCode        string
	EnglishText     string
	BodoTranslation string
	MizoTranslation string
}

type ClassroomService struct {
	store      repository.ClassroomStore
	translator *TranslationService
	publisher  Publisher
	now        func() time.Time
}

func NewClassroomService(
	store repository.ClassroomStore,
	translator *TranslationService,
	publisher Publisher,
) *ClassroomService {
	return &ClassroomService{
		store:      store,
		translator: translator,
		publisher:  publisher,
		now:        time.Now,
	}
}

func (s *ClassroomService) StartClass(ctx context.Context, teacherID, teacherName, subject string) (*model.Classroom, error) {
	classroom := &model.Classroom{
		TeacherID:   teacherID,
		TeacherName: teacherName,
		Subject:     strings.TrimSpace(subject),
		Active:      true,
		CreatedAt:   s.now().UTC(),
	}
	if classroom.Subject == "" {
		classroom.Subject = "General"
	}

	for attempt := 0; attempt < config.JoinCodeMaxRetries; attempt++ {
		code, err := util.GenerateCode(config.JoinCodeLength)
		if err != nil {
			return nil, apperrors.Internal("Failed to generate join code").WithCause(err)
		}
		classroom.JoinCode = code

		created, err := s.store.Create(ctx, classroom)
		if err != nil {
			return nil, apperrors.Internal("Failed to create classroom").WithCause(err)
		}
		if created {
			log.Info().
				Str("joinCode", code).
				Str("teacherId", teacherID).
				Str("subject", classroom.Subject).
				Msg("class started")
			return classroom, nil
		}
	}

	return nil, apperrors.New(apperrors.ErrCodeConflict, "Could not allocate a unique join code")
}

func (s *ClassroomService) StopClass(ctx context.Context, teacherID, joinCode string) error {
	classroom, err := s.ownedClassroom(ctx, teacherID, joinCode)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, classroom); err != nil {
		return apperrors.Internal("Failed to stop class").WithCause(err)
	}

	s.publish(ctx, classroom.JoinCode, EventClassEnded, map[string]string{
		"joinCode": classroom.JoinCode,
		"message":  apperrors.ClassEnded().Message,
	})

	log.Info().Str("joinCode", classroom.JoinCode).Str("teacherId", teacherID).Msg("class stopped")
	return nil
}

func (s *ClassroomService) Join(ctx context.Context, studentID, joinCode string) (*JoinResult, error) {
	studentID = strings.TrimSpace(studentID)
	code := util.NormalizeCode(joinCode)
	if studentID == "" {
		return nil, apperrors.MissingRequired("studentId")
	}
	if code == "" {
		return nil, apperrors.MissingRequired("joinCode")
	}

	classroom, err := s.store.Find(ctx, code)
	if err != nil {
		return nil, apperrors.Internal("Failed to look up classroom").WithCause(err)
	}
	if classroom == nil || !classroom.Active {
		log.Warn().Str("joinCode", util.MaskCode(code)).Msg("invalid join code")
		return nil, apperrors.InvalidJoinCode()
	}

	added, err := s.store.AddStudent(ctx, code, studentID)
	if err != nil {
		return nil, apperrors.Internal("Failed to join class").WithCause(err)
	}

	log.Info().Str("joinCode", code).Str("studentId", studentID).Bool("rejoin", !added).Msg("student joined class")
	return &JoinResult{Classroom: classroom, AlreadyJoined: !added}, nil
}

// Broadcast stores the latest utterance, filling translations the teacher did not supply.
func (s *ClassroomService) Broadcast(ctx context.Context, teacherID string, params BroadcastParams) (*model.BroadcastContent, error) {
	english := strings.TrimSpace(params.EnglishText)
	if english == "" {
		return nil, apperrors.MissingRequired("englishText")
	}

	classroom, err := s.ownedClassroom(ctx, teacherID, params.JoinCode)
	if err != nil {
		return nil, err
	}

	content := &model.BroadcastContent{
		EnglishText:     english,
		BodoTranslation: strings.TrimSpace(params.BodoTranslation),
		MizoTranslation: strings.TrimSpace(params.MizoTranslation),
		Timestamp:       s.now().UTC().Format(time.RFC3339Nano),
	}
	if content.BodoTranslation == "" && s.translator != nil {
		content.BodoTranslation = s.translator.Translate(english, model.LanguageEnglish, model.LanguageBodo)
	}
	if content.MizoTranslation == "" && s.translator != nil {
		content.MizoTranslation = s.translator.Translate(english, model.LanguageEnglish, model.LanguageMizo)
	}

	if err := s.store.SaveBroadcast(ctx, classroom.JoinCode, content); err != nil {
		return nil, apperrors.Internal("Failed to store broadcast").WithCause(err)
	}

	s.publish(ctx, classroom.JoinCode, EventBroadcast, content)

	log.Debug().Str("joinCode", classroom.JoinCode).Str("timestamp", content.Timestamp).Msg("speech broadcast")
	return content, nil
}

// GetBroadcast returns NotFound both when the class is gone and when nothing was broadcast yet.
func (s *ClassroomService) GetBroadcast(ctx context.Context, joinCode string) (*model.BroadcastContent, error) {
	code := util.NormalizeCode(joinCode)

	classroom, err := s.store.Find(ctx, code)
	if err != nil {
		return nil, apperrors.Internal("Failed to look up classroom").WithCause(err)
	}
	if classroom == nil {
		return nil, apperrors.NotFound("Classroom")
	}

	content, err := s.store.FindBroadcast(ctx, code)
	if err != nil {
		return nil, apperrors.Internal("Failed to load broadcast").WithCause(err)
	}
	if content == nil {
		return nil, apperrors.NotFound("Broadcast")
	}
	return content, nil
}

// Lookup returns the live classroom for joinCode.
func (s *ClassroomService) Lookup(ctx context.Context, joinCode string) (*model.Classroom, error) {
	code := util.NormalizeCode(joinCode)
	if code == "" {
		return nil, apperrors.MissingRequired("joinCode")
	}

	classroom, err := s.store.Find(ctx, code)
	if err != nil {
		return nil, apperrors.Internal("Failed to look up classroom").WithCause(err)
	}
	if classroom == nil {
		return nil, apperrors.NotFound("Classroom")
	}
	return classroom, nil
}

func (s *ClassroomService) ListTeacherClasses(ctx context.Context, teacherID string) ([]model.Classroom, error) {
	codes, err := s.store.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list classes").WithCause(err)
	}

	classes := make([]model.Classroom, 0, len(codes))
	for _, code := range codes {
		classroom, err := s.store.Find(ctx, code)
		if err != nil {
			return nil, apperrors.Internal("Failed to list classes").WithCause(err)
		}
		if classroom != nil {
			classes = append(classes, *classroom)
		}
	}
	return classes, nil
}

func (s *ClassroomService) ownedClassroom(ctx context.Context, teacherID, joinCode string) (*model.Classroom, error) {
	code := util.NormalizeCode(joinCode)
	if code == "" {
		return nil, apperrors.MissingRequired("joinCode")
	}

	classroom, err := s.store.Find(ctx, code)
	if err != nil {
		return nil, apperrors.Internal("Failed to look up classroom").WithCause(err)
	}
	if classroom == nil {
		return nil, apperrors.NotFound("Classroom")
	}
	if classroom.TeacherID != teacherID {
		return nil, apperrors.NotClassOwner()
	}
	return classroom, nil
}

func (s *ClassroomService) publish(ctx context.Context, joinCode, eventType string, payload any) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to marshal event")
		return
	}

	if err := s.publisher.Publish(ctx, joinCode, sse.Event{Type: eventType, Data: data}); err != nil {
		log.Warn().Err(err).Str("joinCode", joinCode).Str("event", eventType).Msg("failed to publish event")
	}
}

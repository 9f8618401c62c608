package service

import (
	"context"
	"fmt"

	"github.com/classroom-assistant/classroom-go/internal/model"
	"github.com/classroom-assistant/classroom-go/internal/repository"
)

type StatsService struct {
	teacherRepo  repository.TeacherRepository
	studentRepo  repository.StudentRepository
	presenceRepo repository.PresenceRepository
	store        repository.ClassroomStore
}

func NewStatsService(
	teacherRepo repository.TeacherRepository,
	studentRepo repository.StudentRepository,
	presenceRepo repository.PresenceRepository,
	store repository.ClassroomStore,
) *StatsService {
	return &StatsService{
		teacherRepo:  teacherRepo,
		studentRepo:  studentRepo,
		presenceRepo: presenceRepo,
		store:        store,
	}
}

func (s *StatsService) Get(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	var err error

	if stats.TotalTeachers, err = s.teacherRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count teachers: %w", err)
	}
	if stats.TotalStudents, err = s.studentRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	if stats.ActiveStudents, err = s.presenceRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count active students: %w", err)
	}
	if stats.UniqueLogins, err = s.presenceRepo.CountUniqueLogins(ctx); err != nil {
		return nil, fmt.Errorf("count unique logins: %w", err)
	}
	if stats.ActiveClassrooms, err = s.store.CountActive(ctx); err != nil {
		return nil, fmt.Errorf("count classrooms: %w", err)
	}
	return &stats, nil
}

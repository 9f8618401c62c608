package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/classroom-assistant/classroom-go/internal/model"
	"github.com/classroom-assistant/classroom-go/internal/repository"
	"github.com/classroom-assistant/classroom-go/internal/sse"
)

type mockClassroomStore struct {
	mock.Mock
}

func (m *mockClassroomStore) Create(ctx context.Context, classroom *model.Classroom) (bool, error) {
	args := m.Called(ctx, classroom)
	return args.Bool(0), args.Error(1)
}

func (m *mockClassroomStore) Find(ctx context.Context, joinCode string) (*model.Classroom, error) {
	args := m.Called(ctx, joinCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Classroom), args.Error(1)
}

func (m *mockClassroomStore) Delete(ctx context.Context, classroom *model.Classroom) error {
	return m.Called(ctx, classroom).Error(0)
}

func (m *mockClassroomStore) AddStudent(ctx context.Context, joinCode, studentID string) (bool, error) {
	args := m.Called(ctx, joinCode, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *mockClassroomStore) CountStudents(ctx context.Context, joinCode string) (int64, error) {
	args := m.Called(ctx, joinCode)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockClassroomStore) SaveBroadcast(ctx context.Context, joinCode string, content *model.BroadcastContent) error {
	return m.Called(ctx, joinCode, content).Error(0)
}

func (m *mockClassroomStore) FindBroadcast(ctx context.Context, joinCode string) (*model.BroadcastContent, error) {
	args := m.Called(ctx, joinCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BroadcastContent), args.Error(1)
}

func (m *mockClassroomStore) ListByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	args := m.Called(ctx, teacherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockClassroomStore) CountActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, joinCode string, event sse.Event) error {
	return m.Called(ctx, joinCode, event).Error(0)
}

type mockTeacherRepo struct {
	mock.Mock
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*model.Teacher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Teacher), args.Error(1)
}

func (m *mockTeacherRepo) FindByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Teacher), args.Error(1)
}

func (m *mockTeacherRepo) Create(ctx context.Context, params model.CreateTeacherParams) (*model.Teacher, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Teacher), args.Error(1)
}

func (m *mockTeacherRepo) UpsertGoogle(ctx context.Context, params model.UpsertGoogleTeacherParams) (*model.Teacher, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Teacher), args.Error(1)
}

func (m *mockTeacherRepo) UpdateLastLogin(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTeacherRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockTeacherRepo) WithTx(tx *sqlx.Tx) repository.TeacherRepository {
	return m
}

type mockStudentRepo struct {
	mock.Mock
}

func (m *mockStudentRepo) FindByUserID(ctx context.Context, userID string) (*model.Student, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *mockStudentRepo) Upsert(ctx context.Context, params model.UpsertStudentParams) (*model.Student, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *mockStudentRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStudentRepo) WithTx(tx *sqlx.Tx) repository.StudentRepository {
	return m
}

type mockPresenceRepo struct {
	mock.Mock
}

func (m *mockPresenceRepo) MarkLoggedIn(ctx context.Context, student *model.Student) error {
	return m.Called(ctx, student).Error(0)
}

func (m *mockPresenceRepo) MarkLoggedOut(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPresenceRepo) List(ctx context.Context) ([]model.StudentPresence, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StudentPresence), args.Error(1)
}

func (m *mockPresenceRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockPresenceRepo) CountUniqueLogins(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockPresenceRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPresenceRepo) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

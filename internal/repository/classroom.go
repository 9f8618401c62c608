package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/model"
	redisclient "github.com/classroom-assistant/classroom-go/internal/redis"
)

// ClassroomStore keeps live classrooms, their rosters and latest broadcast in Redis.
type ClassroomStore interface {
	Create(ctx context.Context, classroom *model.Classroom) (bool, error)
	Find(ctx context.Context, joinCode string) (*model.Classroom, error)
	Delete(ctx context.Context, classroom *model.Classroom) error
	AddStudent(ctx context.Context, joinCode, studentID string) (bool, error)
	CountStudents(ctx context.Context, joinCode string) (int64, error)
	SaveBroadcast(ctx context.Context, joinCode string, content *model.BroadcastContent) error
	FindBroadcast(ctx context.Context, joinCode string) (*model.BroadcastContent, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]string, error)
	CountActive(ctx context.Context) (int, error)
}

type classroomStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClassroomStore(client *redis.Client, ttl time.Duration) ClassroomStore {
	return &classroomStore{client: client, ttl: ttl}
}

// Create stores the classroom unless the join code is already taken.
func (s *classroomStore) Create(ctx context.Context, classroom *model.Classroom) (bool, error) {
	data, err := json.Marshal(classroom)
	if err != nil {
		return false, err
	}

	ok, err := s.client.SetNX(ctx, redisclient.ClassroomKey(classroom.JoinCode), data, s.ttl).Result()
	if err != nil || !ok {
		return false, err
	}

	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, redisclient.TeacherClassesKey(classroom.TeacherID), classroom.JoinCode)
	pipe.Expire(ctx, redisclient.TeacherClassesKey(classroom.TeacherID), s.ttl)
	pipe.SAdd(ctx, redisclient.ActiveClassroomsKey, classroom.JoinCode)
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the join code so the teacher can retry.
		if delErr := s.client.Del(context.WithoutCancel(ctx), redisclient.ClassroomKey(classroom.JoinCode)).Err(); delErr != nil {
			log.Warn().Err(delErr).Str("joinCode", classroom.JoinCode).Msg("failed to release join code")
		}
		return false, err
	}
	return true, nil
}

func (s *classroomStore) Find(ctx context.Context, joinCode string) (*model.Classroom, error) {
	data, err := s.client.Get(ctx, redisclient.ClassroomKey(joinCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var classroom model.Classroom
	if err := json.Unmarshal(data, &classroom); err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (s *classroomStore) Delete(ctx context.Context, classroom *model.Classroom) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx,
		redisclient.ClassroomKey(classroom.JoinCode),
		redisclient.RosterKey(classroom.JoinCode),
		redisclient.BroadcastKey(classroom.JoinCode),
	)
	pipe.SRem(ctx, redisclient.TeacherClassesKey(classroom.TeacherID), classroom.JoinCode)
	pipe.SRem(ctx, redisclient.ActiveClassroomsKey, classroom.JoinCode)
	_, err := pipe.Exec(ctx)
	return err
}

// AddStudent reports false when the student was already on the roster.
func (s *classroomStore) AddStudent(ctx context.Context, joinCode, studentID string) (bool, error) {
	pipe := s.client.TxPipeline()
	added := pipe.SAdd(ctx, redisclient.RosterKey(joinCode), studentID)
	pipe.Expire(ctx, redisclient.RosterKey(joinCode), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return added.Val() == 1, nil
}

func (s *classroomStore) CountStudents(ctx context.Context, joinCode string) (int64, error) {
	return s.client.SCard(ctx, redisclient.RosterKey(joinCode)).Result()
}

func (s *classroomStore) SaveBroadcast(ctx context.Context, joinCode string, content *model.BroadcastContent) error {
	data, err := json.Marshal(content)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisclient.BroadcastKey(joinCode), data, s.ttl).Err()
}

func (s *classroomStore) FindBroadcast(ctx context.Context, joinCode string) (*model.BroadcastContent, error) {
	data, err := s.client.Get(ctx, redisclient.BroadcastKey(joinCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var content model.BroadcastContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

func (s *classroomStore) ListByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	return s.client.SMembers(ctx, redisclient.TeacherClassesKey(teacherID)).Result()
}

// CountActive drops codes whose classroom key has expired before counting.
func (s *classroomStore) CountActive(ctx context.Context) (int, error) {
	codes, err := s.client.SMembers(ctx, redisclient.ActiveClassroomsKey).Result()
	if err != nil {
		return 0, err
	}

	active := 0
	for _, code := range codes {
		n, err := s.client.Exists(ctx, redisclient.ClassroomKey(code)).Result()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			s.client.SRem(ctx, redisclient.ActiveClassroomsKey, code)
			continue
		}
		active++
	}
	return active, nil
}

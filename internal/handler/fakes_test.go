package handler

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/classroom-assistant/classroom-go/internal/middleware"
	"github.com/classroom-assistant/classroom-go/internal/model"
	"github.com/classroom-assistant/classroom-go/internal/service"
	"github.com/classroom-assistant/classroom-go/internal/sse"
)

type fakeAuthService struct {
	registerFunc       func(ctx context.Context, email, password, name string) (*model.Teacher, error)
	loginTeacherFunc   func(ctx context.Context, email, password string) (*service.LoginResult, error)
	loginGoogleFunc    func(ctx context.Context, idToken string) (*service.LoginResult, error)
	loginStudentFunc   func(ctx context.Context, userID, password string) (*service.LoginResult, error)
	logoutFunc         func(ctx context.Context, userID string) error
	teacherProfileFunc func(ctx context.Context, teacherID string) (*model.Teacher, error)
	activeStudentsFunc func(ctx context.Context) ([]model.StudentPresence, error)
}

func (f *fakeAuthService) RegisterTeacher(ctx context.Context, email, password, name string) (*model.Teacher, error) {
	return f.registerFunc(ctx, email, password, name)
}

func (f *fakeAuthService) LoginTeacher(ctx context.Context, email, password string) (*service.LoginResult, error) {
	return f.loginTeacherFunc(ctx, email, password)
}

func (f *fakeAuthService) LoginTeacherGoogle(ctx context.Context, idToken string) (*service.LoginResult, error) {
	return f.loginGoogleFunc(ctx, idToken)
}

func (f *fakeAuthService) LoginStudent(ctx context.Context, userID, password string) (*service.LoginResult, error) {
	return f.loginStudentFunc(ctx, userID, password)
}

func (f *fakeAuthService) Logout(ctx context.Context, userID string) error {
	return f.logoutFunc(ctx, userID)
}

func (f *fakeAuthService) TeacherProfile(ctx context.Context, teacherID string) (*model.Teacher, error) {
	return f.teacherProfileFunc(ctx, teacherID)
}

func (f *fakeAuthService) ActiveStudents(ctx context.Context) ([]model.StudentPresence, error) {
	return f.activeStudentsFunc(ctx)
}

type fakeClassroomService struct {
	startFunc     func(ctx context.Context, teacherID, teacherName, subject string) (*model.Classroom, error)
	stopFunc      func(ctx context.Context, teacherID, joinCode string) error
	joinFunc      func(ctx context.Context, studentID, joinCode string) (*service.JoinResult, error)
	broadcastFunc func(ctx context.Context, teacherID string, params service.BroadcastParams) (*model.BroadcastContent, error)
	getFunc       func(ctx context.Context, joinCode string) (*model.BroadcastContent, error)
	lookupFunc    func(ctx context.Context, joinCode string) (*model.Classroom, error)
	listFunc      func(ctx context.Context, teacherID string) ([]model.Classroom, error)
}

func (f *fakeClassroomService) StartClass(ctx context.Context, teacherID, teacherName, subject string) (*model.Classroom, error) {
	return f.startFunc(ctx, teacherID, teacherName, subject)
}

func (f *fakeClassroomService) StopClass(ctx context.Context, teacherID, joinCode string) error {
	return f.stopFunc(ctx, teacherID, joinCode)
}

func (f *fakeClassroomService) Join(ctx context.Context, studentID, joinCode string) (*service.JoinResult, error) {
	return f.joinFunc(ctx, studentID, joinCode)
}

func (f *fakeClassroomService) Broadcast(ctx context.Context, teacherID string, params service.BroadcastParams) (*model.BroadcastContent, error) {
	return f.broadcastFunc(ctx, teacherID, params)
}

func (f *fakeClassroomService) GetBroadcast(ctx context.Context, joinCode string) (*model.BroadcastContent, error) {
	return f.getFunc(ctx, joinCode)
}

func (f *fakeClassroomService) Lookup(ctx context.Context, joinCode string) (*model.Classroom, error) {
	return f.lookupFunc(ctx, joinCode)
}

func (f *fakeClassroomService) ListTeacherClasses(ctx context.Context, teacherID string) ([]model.Classroom, error) {
	return f.listFunc(ctx, teacherID)
}

type fakeSubscriber struct {
	client       *sse.Client
	unsubscribed bool
}

func (f *fakeSubscriber) Subscribe(joinCode string) *sse.Client {
	f.client.JoinCode = joinCode
	return f.client
}

func (f *fakeSubscriber) Unsubscribe(client *sse.Client) {
	f.unsubscribed = true
}

func passthrough(next http.Handler) http.Handler {
	return next
}

// withClaims stands in for the JWT middleware.
func withClaims(userID string, role model.Role, name string) func(http.Handler) http.Handler {
	claims := &model.Claims{
		Role:             role,
		Name:             name,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), claims)))
		})
	}
}

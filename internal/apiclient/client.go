// Package apiclient is the HTTP client for the classroom backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/httputil"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken sets the bearer token sent with authenticated requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// IsTimeout reports whether err is a deadline or transport timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type errorBody struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Code    apperrors.ErrorCode `json:"code"`
	Details any                 `json:"details"`
}

// StatusError carries the HTTP status of a rejected request alongside the
// decoded AppError.
type StatusError struct {
	Status int
	*apperrors.AppError
}

func (e *StatusError) Unwrap() error {
	return e.AppError
}

// StatusOf returns the HTTP status of an API error, or 0 for transport errors.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	code := body.Code
	if code == "" {
		code = httputil.CodeFromStatus(status)
	}
	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	appErr := apperrors.New(code, msg)
	if body.Details != nil {
		appErr = appErr.WithDetails(body.Details)
	}
	return &StatusError{Status: status, AppError: appErr}
}

type studentLoginResponse struct {
	UserID            string     `json:"userId"`
	Name              string     `json:"name"`
	Role              model.Role `json:"role"`
	Token             string     `json:"token"`
	PreferredLanguage string     `json:"preferredLanguage"`
}

func (c *Client) StudentLogin(ctx context.Context, userID, password string) (*model.SessionRecord, error) {
	var resp studentLoginResponse
	err := c.do(ctx, http.MethodPost, "/api/student/login", map[string]string{
		"userId":   userID,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &model.SessionRecord{
		UserID:            resp.UserID,
		Name:              resp.Name,
		Role:              resp.Role,
		Token:             resp.Token,
		PreferredLanguage: resp.PreferredLanguage,
	}, nil
}

type teacherLoginResponse struct {
	Token   string         `json:"token"`
	Role    model.Role     `json:"role"`
	Teacher *model.Teacher `json:"teacher"`
}

func (c *Client) TeacherLogin(ctx context.Context, email, password string) (*model.SessionRecord, error) {
	var resp teacherLoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Teacher == nil {
		return nil, apperrors.External("classroom api", errors.New("login response missing teacher"))
	}

	return &model.SessionRecord{
		UserID: resp.Teacher.ID,
		Name:   resp.Teacher.Name,
		Role:   resp.Role,
		Token:  resp.Token,
		Email:  resp.Teacher.Email,
	}, nil
}

func (c *Client) RegisterTeacher(ctx context.Context, email, password, name string) (*model.Teacher, error) {
	var resp struct {
		Teacher *model.Teacher `json:"teacher"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Teacher, nil
}

func (c *Client) Logout(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/api/logout", map[string]string{"userId": userID}, nil)
}

type TokenInfo struct {
	Valid  bool       `json:"valid"`
	UserID string     `json:"userId"`
	Name   string     `json:"name"`
	Role   model.Role `json:"role"`
}

func (c *Client) VerifyToken(ctx context.Context) (*TokenInfo, error) {
	var info TokenInfo
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify-token", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

type StartedClass struct {
	JoinCode string `json:"joinCode"`
	Subject  string `json:"subject"`
}

func (c *Client) StartClass(ctx context.Context, subject string) (*StartedClass, error) {
	var started StartedClass
	err := c.do(ctx, http.MethodPost, "/api/teacher/start-class", map[string]string{"subject": subject}, &started)
	if err != nil {
		return nil, err
	}
	return &started, nil
}

func (c *Client) StopClass(ctx context.Context, joinCode string) error {
	return c.do(ctx, http.MethodPost, "/api/teacher/stop-class", map[string]string{"joinCode": joinCode}, nil)
}

type JoinResult struct {
	TeacherName string `json:"teacherName"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
}

func (c *Client) Join(ctx context.Context, studentID, joinCode string) (*JoinResult, error) {
	var result JoinResult
	err := c.do(ctx, http.MethodPost, "/api/student/join", map[string]string{
		"studentId": studentID,
		"joinCode":  joinCode,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type BroadcastRequest struct {
	JoinCode        string `json:"joinCode"`
	EnglishText     string `json:"englishText"`
	BodoTranslation string `json:"bodoTranslation,omitempty"`
	MizoTranslation string `json:"mizoTranslation,omitempty"`
}

func (c *Client) Broadcast(ctx context.Context, req BroadcastRequest) (*model.BroadcastContent, error) {
	var resp struct {
		Content *model.BroadcastContent `json:"content"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/teacher/broadcast-speech", req, &resp); err != nil {
		return nil, err
	}
	return resp.Content, nil
}

func (c *Client) GetBroadcast(ctx context.Context, joinCode string) (*model.BroadcastContent, error) {
	var resp struct {
		Content *model.BroadcastContent `json:"content"`
	}
	path := "/api/student/get-broadcast/" + url.PathEscape(joinCode)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Content == nil {
		return nil, apperrors.NotFound("Broadcast")
	}
	return resp.Content, nil
}

func (c *Client) Translate(ctx context.Context, text string, source, target model.Language) (string, error) {
	var resp struct {
		Translation string `json:"translation"`
	}
	err := c.do(ctx, http.MethodPost, "/api/translate", map[string]string{
		"text":        text,
		"source_lang": string(source),
		"target_lang": string(target),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Translation, nil
}

func (c *Client) TranslateBatch(ctx context.Context, texts []string) ([]model.BatchTranslation, error) {
	var resp struct {
		Translations []model.BatchTranslation `json:"translations"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/translate/batch", map[string][]string{"texts": texts}, &resp); err != nil {
		return nil, err
	}
	return resp.Translations, nil
}

func (c *Client) ActiveStudents(ctx context.Context) ([]model.StudentPresence, error) {
	var resp struct {
		Students []model.StudentPresence `json:"students"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/active-students", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Students, nil
}

func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

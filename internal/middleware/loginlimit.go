package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/audit"
	"github.com/classroom-assistant/classroom-go/internal/config"
	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
)

const (
	loginCleanupPeriod = 5 * time.Minute
	loginPeekLimit     = 4 << 10
)

type loginAttempt struct {
	count       int
	windowStart time.Time
}

// LoginRateLimiter is a per-process guard against password guessing on the
// teacher and student login endpoints. It counts failed logins (401) per
// account and per IP; successful logins are never counted.
type LoginRateLimiter struct {
	mu          sync.Mutex
	failures    map[string]*loginAttempt
	maxAttempts int
	maxPerIP    int
	window      time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

func NewLoginRateLimiter() *LoginRateLimiter {
	return &LoginRateLimiter{
		failures:    make(map[string]*loginAttempt),
		maxAttempts: config.LoginMaxAttempts,
		maxPerIP:    config.LoginMaxFailuresPerIP,
		window:      config.LoginLockoutWindow,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (l *LoginRateLimiter) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < loginCleanupPeriod {
		return
	}
	l.lastCleanup = now

	for key, attempt := range l.failures {
		if now.Sub(attempt.windowStart) > l.window {
			delete(l.failures, key)
		}
	}
}

// locked reports whether key has reached limit failures in the current window.
// Callers hold l.mu.
func (l *LoginRateLimiter) locked(key string, limit int, now time.Time) bool {
	attempt, ok := l.failures[key]
	if !ok {
		return false
	}
	if now.Sub(attempt.windowStart) > l.window {
		delete(l.failures, key)
		return false
	}
	return attempt.count >= limit
}

func (l *LoginRateLimiter) isAllowed(ipKey, accountKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	return !l.locked(ipKey, l.maxPerIP, now) && !l.locked(accountKey, l.maxAttempts, now)
}

func (l *LoginRateLimiter) recordFailure(keys ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for _, key := range keys {
		attempt, ok := l.failures[key]
		if !ok || now.Sub(attempt.windowStart) > l.window {
			l.failures[key] = &loginAttempt{count: 1, windowStart: now}
			continue
		}
		attempt.count++
	}
}

func (l *LoginRateLimiter) recordSuccess(accountKey string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, accountKey)
}

func (l *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ipKey := r.URL.Path + "|ip:" + ip
		accountKey := r.URL.Path + "|" + ip + "|" + loginAccount(r)

		if !l.isAllowed(ipKey, accountKey) {
			log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("login attempts exceeded")
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed})
			w.Header().Set("Retry-After", "60")
			writeError(w, apperrors.New(apperrors.ErrCodeRateLimitExceeded, "Too many login attempts. Please try again later."))
			return
		}

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		switch status := ww.Status(); {
		case status == http.StatusUnauthorized:
			l.recordFailure(ipKey, accountKey)
		case status >= 200 && status < 300:
			l.recordSuccess(accountKey)
		}
	})
}

// loginAccount peeks at the login body for the account being tried and
// restores the body for the handler.
func loginAccount(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, loginPeekLimit))
	rest := r.Body
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), rest), rest}
	if err != nil {
		return ""
	}

	var body struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
	}
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	if body.UserID != "" {
		return strings.ToUpper(strings.TrimSpace(body.UserID))
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

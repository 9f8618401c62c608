package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Login history older than this is pruned by the cleanup job.
const LoginHistoryRetention = 365 * 24 * time.Hour

// Join codes
const (
	JoinCodeLength     = 6
	JoinCodeMaxRetries = 10
)

// SSE
const (
	SSEHeartbeatInterval = 30 * time.Second
	SSEClientBuffer      = 16
)

// Failed logins before lockout. Only failures count, so a whole class can
// sign in from one school address.
const (
	LoginMaxAttempts      = 5
	LoginMaxFailuresPerIP = 50
	LoginLockoutWindow    = 15 * time.Minute
)

// Client session store keys
const (
	TeacherSessionKey = "teacherSession"
	StudentSessionKey = "studentSession"
	UserRoleKey       = "userRole"
)

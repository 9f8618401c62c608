package model

import "time"

const (
	AuthMethodPassword = "password"
	AuthMethodGoogle   = "google"
)

type Teacher struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Name         string     `db:"name" json:"name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	GoogleID     *string    `db:"google_id" json:"-"`
	AuthMethod   string     `db:"auth_method" json:"authMethod"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

type CreateTeacherParams struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
}

// GoogleIdentity is the verified subject of a Google ID token.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

type UpsertGoogleTeacherParams struct {
	ID       string
	Email    string
	Name     string
	GoogleID string
}

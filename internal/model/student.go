package model

import "time"

type Student struct {
	UserID            string    `db:"user_id" json:"userId"`
	Name              string    `db:"name" json:"name"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	Role              Role      `db:"role" json:"role"`
	PreferredLanguage string    `db:"preferred_language" json:"preferredLanguage"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
}

type UpsertStudentParams struct {
	UserID            string
	Name              string
	PasswordHash      string
	PreferredLanguage string
}

// StudentPresence is a logged-in student as listed by active-students.
type StudentPresence struct {
	UserID            string    `db:"user_id" json:"userId"`
	Name              string    `db:"name" json:"name"`
	PreferredLanguage string    `db:"preferred_language" json:"preferredLanguage"`
	LoggedInAt        time.Time `db:"logged_in_at" json:"loginTime"`
}

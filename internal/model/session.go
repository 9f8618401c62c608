package model

import "time"

// SessionRecord is the client-side proof of login, persisted under the
// teacherSession or studentSession key.
type SessionRecord struct {
	UserID            string `json:"userId"`
	Name              string `json:"name"`
	Role              Role   `json:"role"`
	Token             string `json:"token"`
	PreferredLanguage string `json:"preferredLanguage,omitempty"`
	Email             string `json:"email,omitempty"`
}

// JoinSession is a student's attachment to a live classroom.
type JoinSession struct {
	JoinCode  string    `json:"joinCode"`
	StudentID string    `json:"studentId"`
	JoinedAt  time.Time `json:"joinedAt"`
}

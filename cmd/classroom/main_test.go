package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classroom-assistant/classroom-go/internal/account"
	"github.com/classroom-assistant/classroom-go/internal/apiclient"
	"github.com/classroom-assistant/classroom-go/internal/config"
	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/live"
	"github.com/classroom-assistant/classroom-go/internal/localstore"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

func TestViewPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := &viewPrinter{out: &buf}

	joined := live.View{State: live.Joined, JoinCode: "ABC234", Subject: "Science", TeacherName: "Ms. Daimary"}
	p.print(live.View{State: live.Joining})
	p.print(joined)

	joined.EnglishText = "Good morning"
	p.print(joined)
	p.print(joined)

	p.print(live.View{State: live.Ended, Notice: "Teacher has ended the class."})

	assert.Equal(t,
		"Joined ABC234: Science with Ms. Daimary\n"+
			"EN: Good morning\n>>  — (not found in dataset)\n"+
			"Teacher has ended the class.\n",
		buf.String())
}

func TestTargetLanguage(t *testing.T) {
	assert.Equal(t, model.LanguageMizo, targetLanguage("bodo", "mizo"))
	assert.Equal(t, model.LanguageBodo, targetLanguage("bodo", "english"))
	assert.Equal(t, model.LanguageMizo, targetLanguage("mizo", ""))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Invalid or expired join code", userMessage(apperrors.InvalidJoinCode()))
	assert.Equal(t, "boom", userMessage(errors.New("boom")))
}

func TestRequireTeacher(t *testing.T) {
	newApp := func() *app {
		store := localstore.NewMemoryStore()
		api := apiclient.New("http://localhost:5000", time.Second)
		return &app{
			cfg:      &config.ClientConfig{},
			api:      api,
			store:    store,
			accounts: account.NewManager(api, store),
		}
	}

	t.Run("no session", func(t *testing.T) {
		_, err := newApp().requireTeacher()
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnauthorized))
	})

	t.Run("student session", func(t *testing.T) {
		a := newApp()
		require.NoError(t, a.store.Set(config.StudentSessionKey, `{"userId":"GOOG1234","role":"student"}`))

		_, err := a.requireTeacher()
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeForbidden))
	})

	t.Run("teacher session", func(t *testing.T) {
		a := newApp()
		require.NoError(t, a.store.Set(config.TeacherSessionKey, `{"userId":"t-1","name":"Ms. Daimary","role":"teacher","token":"tok"}`))

		rec, err := a.requireTeacher()
		require.NoError(t, err)
		assert.Equal(t, "t-1", rec.UserID)
	})
}

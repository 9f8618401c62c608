// Package live implements the student side of a classroom session: joining
// by code, polling the latest broadcast and detecting when the class ends.
package live

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/classroom-assistant/classroom-go/internal/apiclient"
	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

type State int

const (
	Idle State = iota
	Joining
	Joined
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Joining:
		return "joining"
	case Joined:
		return "joined"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

const (
	msgInvalidCode = "Invalid or expired join code"
	msgJoinFailed  = "Could not join class"
	msgClassEnded  = "Teacher has ended the class."
)

type API interface {
	Join(ctx context.Context, studentID, joinCode string) (*apiclient.JoinResult, error)
	GetBroadcast(ctx context.Context, joinCode string) (*model.BroadcastContent, error)
}

type Config struct {
	PollInterval   time.Duration
	GracePeriod    time.Duration
	MissThreshold  int
	PollTimeout    time.Duration
	TargetLanguage model.Language
	AudioEnabled   bool
}

func DefaultConfig() Config {
	return Config{
		PollInterval:   time.Second,
		GracePeriod:    15 * time.Second,
		MissThreshold:  10,
		PollTimeout:    5 * time.Second,
		TargetLanguage: model.LanguageBodo,
		AudioEnabled:   true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.GracePeriod < 0 {
		c.GracePeriod = 0
	}
	if c.MissThreshold <= 0 {
		c.MissThreshold = d.MissThreshold
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	if c.TargetLanguage == "" {
		c.TargetLanguage = d.TargetLanguage
	}
	return c
}

// View is a snapshot of the session handed to the OnChange callback.
type View struct {
	State          State
	JoinCode       string
	TeacherName    string
	Subject        string
	JoinedAt       time.Time
	EnglishText    string
	TranslatedText string
	Misses         int
	Speaking       bool
	Notice         string
	Error          string
}

type Option func(*Protocol)

func WithScheduler(s Scheduler) Option { return func(p *Protocol) { p.scheduler = s } }
func WithClock(c Clock) Option         { return func(p *Protocol) { p.clock = c } }
func WithOnChange(fn func(View)) Option {
	return func(p *Protocol) { p.onChange = fn }
}

type Protocol struct {
	api       API
	speaker   Speaker
	scheduler Scheduler
	clock     Clock
	cfg       Config
	onChange  func(View)

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	gen         uint64
	task        Task
	session     *model.JoinSession
	teacherName string
	subject     string
	english     string
	translated  string
	lastSeen    string
	lastSpoken  string
	misses      int
	notice      string
	errMsg      string
	speaking    bool
	stopSpeech  context.CancelFunc
	closed      bool
}

// New returns an idle protocol. A nil speaker disables audio.
func New(api API, speaker Speaker, cfg Config, opts ...Option) *Protocol {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Protocol{
		api:       api,
		speaker:   speaker,
		scheduler: TickerScheduler{},
		clock:     SystemClock{},
		cfg:       cfg.withDefaults(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Protocol) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

func (p *Protocol) viewLocked() View {
	v := View{
		State:          p.state,
		TeacherName:    p.teacherName,
		Subject:        p.subject,
		EnglishText:    p.english,
		TranslatedText: p.translated,
		Misses:         p.misses,
		Speaking:       p.speaking,
		Notice:         p.notice,
		Error:          p.errMsg,
	}
	if p.session != nil {
		v.JoinCode = p.session.JoinCode
		v.JoinedAt = p.session.JoinedAt
	}
	return v
}

func (p *Protocol) notify(v View) {
	if p.onChange != nil {
		p.onChange(v)
	}
}

// Join attaches to the class behind code, replacing any current session.
func (p *Protocol) Join(ctx context.Context, studentID, code string) error {
	studentID = strings.TrimSpace(studentID)
	code = strings.ToUpper(strings.TrimSpace(code))
	if studentID == "" {
		return apperrors.MissingRequired("studentId")
	}
	if code == "" {
		return apperrors.MissingRequired("joinCode")
	}

	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return errors.New("session closed")
	case p.state == Ended:
		p.mu.Unlock()
		return apperrors.New(apperrors.ErrCodeConflict, "Dismiss the ended class before joining again")
	}
	p.teardownLocked()
	p.clearContentLocked()
	p.state = Joining
	p.errMsg = ""
	p.notice = ""
	gen := p.gen
	joining := p.viewLocked()
	p.mu.Unlock()
	p.notify(joining)

	result, err := p.api.Join(ctx, studentID, code)

	p.mu.Lock()
	if p.gen != gen || p.state != Joining {
		p.mu.Unlock()
		return errors.New("join superseded")
	}
	if err != nil {
		p.state = Idle
		p.errMsg = joinErrorMessage(err)
		v := p.viewLocked()
		p.mu.Unlock()
		p.notify(v)

		log.Debug().Err(err).Str("joinCode", code).Msg("join failed")
		return apperrors.Wrap(apperrors.GetCode(err), v.Error, err)
	}

	p.state = Joined
	p.session = &model.JoinSession{
		JoinCode:  code,
		StudentID: studentID,
		JoinedAt:  p.clock.Now(),
	}
	p.teacherName = result.TeacherName
	p.subject = result.Subject
	p.notice = result.Message
	p.lastSeen = ""
	p.misses = 0
	p.task = p.scheduler.Every(p.cfg.PollInterval, func() { p.poll(gen, code) })
	v := p.viewLocked()
	p.mu.Unlock()
	p.notify(v)

	log.Info().Str("joinCode", code).Str("teacher", result.TeacherName).Msg("joined class")
	return nil
}

func joinErrorMessage(err error) string {
	if apperrors.HasCode(err, apperrors.ErrCodeInvalidJoinCode, apperrors.ErrCodeNotFound, apperrors.ErrCodeClassEnded) {
		return msgInvalidCode
	}
	return msgJoinFailed
}

func (p *Protocol) poll(gen uint64, code string) {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.PollTimeout)
	content, err := p.api.GetBroadcast(ctx, code)
	cancel()

	p.mu.Lock()
	if p.gen != gen || p.state != Joined {
		p.mu.Unlock()
		return
	}

	switch {
	case err == nil:
		p.misses = 0
		if content.Timestamp != p.lastSeen {
			p.lastSeen = content.Timestamp
			p.english = content.EnglishText
			p.translated = content.TranslationFor(p.cfg.TargetLanguage)
			p.maybeSpeakLocked()
		}

	case apperrors.HasCode(err, apperrors.ErrCodeNotFound):
		if p.clock.Now().Sub(p.session.JoinedAt) < p.cfg.GracePeriod {
			p.misses = 0
			break
		}
		p.misses++
		if p.misses >= p.cfg.MissThreshold {
			p.endLocked()
		}

	default:
		log.Debug().Err(err).Str("joinCode", code).Msg("poll failed")
		p.mu.Unlock()
		return
	}

	v := p.viewLocked()
	p.mu.Unlock()
	p.notify(v)
}

func (p *Protocol) maybeSpeakLocked() {
	text := p.translated
	if !p.cfg.AudioEnabled || p.speaker == nil || p.speaking {
		return
	}
	if text == "" || text == p.lastSpoken {
		return
	}

	ctx, cancel := context.WithCancel(p.ctx)
	p.speaking = true
	p.lastSpoken = text
	p.stopSpeech = cancel
	lang := p.cfg.TargetLanguage
	gen := p.gen

	go func() {
		defer func() {
			cancel()
			p.mu.Lock()
			// A teardown since this started owns the speaking flag now.
			if p.gen != gen {
				p.mu.Unlock()
				return
			}
			p.speaking = false
			v := p.viewLocked()
			p.mu.Unlock()
			p.notify(v)
		}()

		if err := p.speaker.Speak(ctx, text, lang); err != nil && !errors.Is(err, context.Canceled) {
			log.Debug().Err(err).Msg("speech failed")
		}
	}()
}

func (p *Protocol) endLocked() {
	p.teardownLocked()
	p.state = Ended
	p.notice = msgClassEnded
	log.Info().Str("joinCode", p.session.JoinCode).Int("misses", p.misses).Msg("class ended")
}

// teardownLocked stops the poll task and speech and invalidates in-flight
// results.
func (p *Protocol) teardownLocked() {
	p.gen++
	if p.task != nil {
		p.task.Stop()
		p.task = nil
	}
	if p.stopSpeech != nil {
		p.stopSpeech()
		p.stopSpeech = nil
	}
	if p.speaking && p.speaker != nil {
		p.speaker.Cancel()
	}
	p.speaking = false
}

func (p *Protocol) clearContentLocked() {
	p.session = nil
	p.teacherName = ""
	p.subject = ""
	p.english = ""
	p.translated = ""
	p.lastSeen = ""
	p.lastSpoken = ""
	p.misses = 0
}

// Leave drops the current session. It is a no-op unless joined or joining.
func (p *Protocol) Leave() {
	p.mu.Lock()
	if p.state != Joined && p.state != Joining {
		p.mu.Unlock()
		return
	}
	p.teardownLocked()
	p.clearContentLocked()
	p.state = Idle
	p.notice = ""
	v := p.viewLocked()
	p.mu.Unlock()
	p.notify(v)
}

// Dismiss acknowledges the end-of-class notice.
func (p *Protocol) Dismiss() {
	p.mu.Lock()
	if p.state != Ended {
		p.mu.Unlock()
		return
	}
	p.clearContentLocked()
	p.state = Idle
	p.notice = ""
	v := p.viewLocked()
	p.mu.Unlock()
	p.notify(v)
}

func (p *Protocol) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.teardownLocked()
	p.clearContentLocked()
	p.state = Idle
	p.mu.Unlock()
	p.cancel()
}

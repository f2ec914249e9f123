// Per-connection session state: which view the user is on, their loaded
// history and profile, and the lifecycle of one in-flight generation.

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"nutrichat/internal/models"
	"nutrichat/internal/relay"
)

// State identifies which view the presentation layer should render.
type State int

const (
	StateLoggedOut State = iota
	StateProfileIntake
	StateChatIdle
	StateChatGenerating
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateProfileIntake:
		return "profile_intake"
	case StateChatIdle:
		return "chat_idle"
	case StateChatGenerating:
		return "chat_generating"
	default:
		return "unknown"
	}
}

var (
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrBusy         = errors.New("a response is already being generated")
	ErrEmptyMessage = errors.New("message is empty")
)

// MessageStore is the conversation log boundary.
type MessageStore interface {
	AppendMessage(userID int64, role, content string) error
	GetMessagesByUserID(userID int64) ([]models.Message, error)
}

// ProfileStore is the health profile boundary.
type ProfileStore interface {
	SaveProfile(userID int64, profile models.HealthProfile) error
	GetProfileByUserID(userID int64) (models.HealthProfile, error)
}

// Generator runs one completion turn and returns the accumulated text,
// which is valid (possibly partial) even when err is non-nil.
type Generator interface {
	Generate(ctx context.Context, profile models.HealthProfile, history []models.Message, sink relay.Sink) (string, error)
}

// Session holds the transient state for one connected user. It is owned by
// the connection that created it and never shared between users. Nothing in
// it survives logout; login reconstructs everything from the stores.
type Session struct {
	mu sync.Mutex

	messages MessageStore
	profiles ProfileStore
	relay    Generator

	state    State
	userID   int64
	username string
	history  []models.Message
	profile  models.HealthProfile

	cancel context.CancelFunc
}

func New(messages MessageStore, profiles ProfileStore, generator Generator) *Session {
	return &Session{
		messages: messages,
		profiles: profiles,
		relay:    generator,
		state:    StateLoggedOut,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// History returns a copy of the loaded conversation.
func (s *Session) History() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) Profile() models.HealthProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Login loads the user's history and profile from the stores. A user whose
// profile was never filled in lands on the intake form, everyone else goes
// straight to chat.
func (s *Session) Login(userID int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.messages.GetMessagesByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	profile, err := s.profiles.GetProfileByUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	s.userID = userID
	s.username = username
	s.history = history
	s.profile = profile
	if profile.IsEmpty() {
		s.state = StateProfileIntake
	} else {
		s.state = StateChatIdle
	}
	return nil
}

// SubmitProfile validates and persists the intake form. An invalid
// submission changes nothing: the store keeps the prior value and the
// session stays on the intake view.
func (s *Session) SubmitProfile(profile models.HealthProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoggedOut {
		return ErrNotLoggedIn
	}
	if s.state == StateChatGenerating {
		return ErrBusy
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	if err := s.profiles.SaveProfile(s.userID, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	s.profile = profile
	s.state = StateChatIdle
	return nil
}

// EditProfile returns the user to the intake form. Saved values are kept so
// the form can pre-populate.
func (s *Session) EditProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoggedOut {
		return ErrNotLoggedIn
	}
	if s.state == StateChatGenerating {
		return ErrBusy
	}
	s.state = StateProfileIntake
	return nil
}

// SubmitMessage runs one full chat turn. The user message is persisted
// before generation starts, and the payload (profile and history) is frozen
// for the whole turn. Whatever assistant text accumulated when generation
// ends, by completion, stop or failure, is persisted as the assistant
// message; it is never discarded and never retried. The accumulated text is
// returned alongside any generation error.
func (s *Session) SubmitMessage(ctx context.Context, content string, sink relay.Sink) (string, error) {
	s.mu.Lock()
	if s.state == StateLoggedOut {
		s.mu.Unlock()
		return "", ErrNotLoggedIn
	}
	if s.state == StateChatGenerating {
		s.mu.Unlock()
		return "", ErrBusy
	}
	if strings.TrimSpace(content) == "" {
		s.mu.Unlock()
		return "", ErrEmptyMessage
	}

	userID := s.userID
	if err := s.messages.AppendMessage(userID, models.RoleUser, content); err != nil {
		s.mu.Unlock()
		return "", fmt.Errorf("failed to store message: %w", err)
	}
	s.history = append(s.history, models.Message{UserID: userID, Role: models.RoleUser, Content: content})

	// freeze this turn's payload: a profile edit from another client must
	// not leak into an in-flight generation
	profile := s.profile
	history := make([]models.Message, len(s.history))
	copy(history, s.history)

	genCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateChatGenerating
	s.mu.Unlock()

	full, genErr := s.relay.Generate(genCtx, profile, history, sink)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = nil

	if err := s.messages.AppendMessage(userID, models.RoleAssistant, full); err != nil {
		if s.state == StateChatGenerating {
			s.state = StateChatIdle
		}
		return full, fmt.Errorf("failed to store assistant message: %w", err)
	}
	if s.state == StateChatGenerating {
		// still this login; a logout mid-generation already cleared the rest
		s.history = append(s.history, models.Message{UserID: userID, Role: models.RoleAssistant, Content: full})
		s.state = StateChatIdle
	}
	return full, genErr
}

// Stop requests cancellation of the in-flight turn. It is advisory: the
// relay notices it between fragments, never mid-fragment.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateChatGenerating && s.cancel != nil {
		s.cancel()
	}
}

// Logout clears every transient field. The stores are untouched; the next
// login reloads an identical history and profile.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateLoggedOut
	s.userID = 0
	s.username = ""
	s.history = nil
	s.profile = models.HealthProfile{}
}

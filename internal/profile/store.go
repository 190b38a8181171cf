package profile

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnshRaj112/cleersplit-backend/internal/avatar"
	"github.com/AnshRaj112/cleersplit-backend/internal/events"
)

// Profile is the resolved identity shown by the client.
type Profile struct {
	FirstName string        `json:"first_name"`
	Email     string        `json:"email"`
	Avatar    *avatar.Image `json:"avatar,omitempty"`
	SignInID  uuid.UUID     `json:"sign_in_id"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store holds the single live Profile. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	current Profile

	bus    *events.Bus
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a store holding the signed-out defaults. bus and logger
// may be nil.
func NewStore(bus *events.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		bus:    bus,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.current = defaults(s.now())
	return s
}

func defaults(at time.Time) Profile {
	return Profile{
		FirstName: DefaultFirstName,
		UpdatedAt: at,
	}
}

// ApplyAuthenticatedUser overwrites the first name and email from a fresh
// sign-in. The avatar is left as it is.
func (s *Store) ApplyAuthenticatedUser(displayName, email *string) Profile {
	firstName := ResolveFirstName(displayName, email)
	addr := ""
	if email != nil {
		addr = *email
	}

	s.mu.Lock()
	s.current.FirstName = firstName
	s.current.Email = addr
	s.current.SignInID = uuid.New()
	s.current.UpdatedAt = s.now()
	snap := s.current.clone()
	s.mu.Unlock()

	s.logger.Info("profile updated from sign-in",
		zap.String("sign_in_id", snap.SignInID.String()),
		zap.String("first_name", snap.FirstName),
		zap.Bool("has_email", snap.Email != ""))
	s.publish(events.EventTypeProfileUpdated, snap)
	return snap
}

// SetAvatar replaces the avatar. A nil image clears it.
func (s *Store) SetAvatar(img *avatar.Image) Profile {
	s.mu.Lock()
	if img != nil {
		cp := *img
		img = &cp
	}
	s.current.Avatar = img
	s.current.UpdatedAt = s.now()
	snap := s.current.clone()
	s.mu.Unlock()

	if img == nil {
		s.logger.Info("avatar cleared")
	} else {
		s.logger.Info("avatar set", zap.String("digest", img.Digest))
	}
	s.publish(events.EventTypeProfileAvatarChanged, snap)
	return snap
}

// Reset restores the signed-out defaults.
func (s *Store) Reset() Profile {
	s.mu.Lock()
	s.current = defaults(s.now())
	snap := s.current.clone()
	s.mu.Unlock()

	s.logger.Info("profile reset")
	s.publish(events.EventTypeProfileReset, snap)
	return snap
}

// Snapshot returns a copy of the current profile.
func (s *Store) Snapshot() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

func (s *Store) publish(eventType string, p Profile) {
	if s.bus == nil {
		return
	}
	evt, err := events.New(events.TopicProfile, eventType, p)
	if err != nil {
		s.logger.Error("failed to encode profile event", zap.String("type", eventType), zap.Error(err))
		return
	}
	s.bus.Publish(evt)
}

func (p Profile) clone() Profile {
	if p.Avatar != nil {
		img := *p.Avatar
		p.Avatar = &img
	}
	return p
}

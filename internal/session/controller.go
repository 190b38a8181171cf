package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/cleersplit-backend/internal/events"
	"github.com/AnshRaj112/cleersplit-backend/internal/profile"
)

// Transition describes the effect of one trigger. Seq increases by one for
// every applied transition of a controller.
type Transition struct {
	Seq     uint64    `json:"seq"`
	From    Phase     `json:"from"`
	To      Phase     `json:"to"`
	Trigger Trigger   `json:"trigger"`
	Applied bool      `json:"applied"`
	At      time.Time `json:"at"`
}

// Invalidator cancels outstanding avatar loads. *avatar.Loader satisfies it.
type Invalidator interface {
	Invalidate()
}

// Controller owns the session phase for a single client and keeps the
// profile store in step with it.
type Controller struct {
	store  *profile.Store
	bus    *events.Bus
	logger *zap.Logger
	policy SignOutPolicy
	avatar Invalidator

	mu    sync.Mutex
	phase Phase
	seq   uint64
}

// Option configures a Controller.
type Option func(*Controller)

func WithBus(bus *events.Bus) Option {
	return func(c *Controller) { c.bus = bus }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithPolicy(policy SignOutPolicy) Option {
	return func(c *Controller) {
		if policy != "" {
			c.policy = policy
		}
	}
}

// WithAvatarLoader lets a reset sign-out supersede in-flight avatar loads.
func WithAvatarLoader(inv Invalidator) Option {
	return func(c *Controller) { c.avatar = inv }
}

// NewController starts in SignedOut.
func NewController(store *profile.Store, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		logger: zap.NewNop(),
		policy: PolicyReset,
		phase:  SignedOut,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Screen returns the screen for the current phase.
func (c *Controller) Screen() Screen {
	return c.Phase().Screen()
}

// Policy reports the configured sign-out policy.
func (c *Controller) Policy() SignOutPolicy {
	return c.policy
}

// Begin starts an authentication attempt.
func (c *Controller) Begin() Transition {
	return c.fire(BeginSignIn, nil)
}

// Succeed completes authentication and applies the reported identity to the
// profile. The identity is ignored unless a sign-in is in progress.
func (c *Controller) Succeed(id profile.Identity) Transition {
	return c.fire(AuthSucceeded, func() {
		c.store.ApplyAuthenticatedUser(id.DisplayName, id.Email)
	})
}

// Fail abandons the sign-in attempt.
func (c *Controller) Fail(reason error) Transition {
	tr := c.fire(AuthFailed, nil)
	if tr.Applied {
		c.logger.Warn("sign-in failed", zap.Error(reason))
	}
	return tr
}

// Cancel abandons the sign-in attempt at the user's request.
func (c *Controller) Cancel() Transition {
	return c.fire(AuthCancelled, nil)
}

// SignOut ends the session and applies the sign-out policy.
func (c *Controller) SignOut() Transition {
	return c.fire(SignOut, func() {
		if c.policy != PolicyReset {
			return
		}
		if c.avatar != nil {
			c.avatar.Invalidate()
		}
		c.store.Reset()
	})
}

// fire runs effect and publishes the transition while still holding the lock,
// so no other trigger observes the new phase before the profile matches it
// and subscribers see transitions in the order they were applied. The bus
// never blocks a publisher.
func (c *Controller) fire(trigger Trigger, effect func()) Transition {
	c.mu.Lock()
	from := c.phase
	to, ok := Next(from, trigger)
	tr := Transition{
		From:    from,
		To:      to,
		Trigger: trigger,
		Applied: ok,
		At:      time.Now().UTC(),
	}
	if ok {
		c.seq++
		tr.Seq = c.seq
		c.phase = to
		if effect != nil {
			effect()
		}
		c.publish(tr)
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Debug("ignored session trigger",
			zap.Stringer("phase", from),
			zap.Stringer("trigger", trigger))
		return tr
	}

	c.logger.Info("session phase changed",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Stringer("trigger", trigger),
		zap.Uint64("seq", tr.Seq))
	return tr
}

func (c *Controller) publish(tr Transition) {
	if c.bus == nil {
		return
	}
	evt, err := events.New(events.TopicSession, events.EventTypeSessionPhaseChanged, tr)
	if err != nil {
		c.logger.Error("failed to encode session event", zap.Error(err))
		return
	}
	c.bus.Publish(evt)
}

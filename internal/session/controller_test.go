package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AnshRaj112/cleersplit-backend/internal/avatar"
	"github.com/AnshRaj112/cleersplit-backend/internal/events"
	"github.com/AnshRaj112/cleersplit-backend/internal/profile"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingInvalidator struct{ n atomic.Int32 }

func (c *countingInvalidator) Invalidate() { c.n.Add(1) }

func strPtr(s string) *string { return &s }

func signedIn(t *testing.T, c *Controller) {
	t.Helper()
	require.True(t, c.Begin().Applied)
	require.True(t, c.Succeed(profile.Identity{
		DisplayName: strPtr("Ruth Okolo"),
		Email:       strPtr("ruth@example.com"),
	}).Applied)
}

func TestControllerHappyPath(t *testing.T) {
	store := profile.NewStore(nil, nil)
	c := NewController(store)

	assert.Equal(t, SignedOut, c.Phase())
	assert.Equal(t, ScreenWelcome, c.Screen())

	tr := c.Begin()
	assert.Equal(t, Transition{Seq: 1, From: SignedOut, To: SigningIn, Trigger: BeginSignIn, Applied: true, At: tr.At}, tr)
	assert.Equal(t, ScreenLogin, c.Screen())

	tr = c.Succeed(profile.Identity{DisplayName: strPtr("Ruth Okolo"), Email: strPtr("x@y.com")})
	assert.True(t, tr.Applied)
	assert.Equal(t, SignedIn, c.Phase())
	assert.Equal(t, ScreenHome, c.Screen())

	p := store.Snapshot()
	assert.Equal(t, "Ruth", p.FirstName)
	assert.Equal(t, "x@y.com", p.Email)
}

func TestSucceedOutsideSignInIsIgnored(t *testing.T) {
	store := profile.NewStore(nil, nil)
	c := NewController(store)

	tr := c.Succeed(profile.Identity{DisplayName: strPtr("Mallory")})
	assert.False(t, tr.Applied)
	assert.Equal(t, SignedOut, c.Phase())
	assert.Equal(t, "Alex", store.Snapshot().FirstName)
}

func TestFailAndCancelReturnToWelcome(t *testing.T) {
	c := NewController(profile.NewStore(nil, nil))

	c.Begin()
	tr := c.Fail(errors.New("invalid credentials"))
	assert.True(t, tr.Applied)
	assert.Equal(t, SignedOut, tr.To)

	c.Begin()
	tr = c.Cancel()
	assert.True(t, tr.Applied)
	assert.Equal(t, ScreenWelcome, c.Screen())

	assert.False(t, c.Cancel().Applied)
	assert.False(t, c.Fail(nil).Applied)
}

func TestNoOpTriggersKeepPhase(t *testing.T) {
	c := NewController(profile.NewStore(nil, nil))
	signedIn(t, c)

	for _, tr := range []Transition{c.Begin(), c.Cancel(), c.Fail(nil)} {
		assert.False(t, tr.Applied)
		assert.Equal(t, SignedIn, tr.From)
		assert.Equal(t, SignedIn, tr.To)
	}
	assert.Equal(t, SignedIn, c.Phase())
}

func TestSignOutResetPolicy(t *testing.T) {
	store := profile.NewStore(nil, nil)
	inv := &countingInvalidator{}
	c := NewController(store, WithAvatarLoader(inv))
	require.Equal(t, PolicyReset, c.Policy())

	signedIn(t, c)
	store.SetAvatar(&avatar.Image{Digest: "abc"})

	tr := c.SignOut()
	assert.True(t, tr.Applied)
	assert.Equal(t, SignedOut, c.Phase())

	p := store.Snapshot()
	assert.Equal(t, "Alex", p.FirstName)
	assert.Empty(t, p.Email)
	assert.Nil(t, p.Avatar)
	assert.Equal(t, int32(1), inv.n.Load())
}

func TestSignOutKeepPolicy(t *testing.T) {
	store := profile.NewStore(nil, nil)
	inv := &countingInvalidator{}
	c := NewController(store, WithPolicy(PolicyKeep), WithAvatarLoader(inv))

	signedIn(t, c)
	store.SetAvatar(&avatar.Image{Digest: "abc"})
	c.SignOut()

	p := store.Snapshot()
	assert.Equal(t, "Ruth", p.FirstName)
	assert.Equal(t, "ruth@example.com", p.Email)
	require.NotNil(t, p.Avatar)
	assert.Zero(t, inv.n.Load())
}

func TestSignOutWhenSignedOutDoesNothing(t *testing.T) {
	store := profile.NewStore(nil, nil)
	store.ApplyAuthenticatedUser(strPtr("Ruth"), nil)
	inv := &countingInvalidator{}
	c := NewController(store, WithAvatarLoader(inv))

	assert.False(t, c.SignOut().Applied)
	assert.Equal(t, "Ruth", store.Snapshot().FirstName)
	assert.Zero(t, inv.n.Load())
}

func TestControllerPublishesPhaseChanges(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	sub := bus.Subscribe(events.TopicSession)

	c := NewController(profile.NewStore(bus, nil), WithBus(bus))
	c.Begin()
	c.SignOut() // ignored, no event
	c.Cancel()

	var first, second Transition
	require.NoError(t, (<-sub.C()).Decode(&first))
	require.NoError(t, (<-sub.C()).Decode(&second))

	assert.Equal(t, BeginSignIn, first.Trigger)
	assert.Equal(t, SigningIn, first.To)
	assert.Equal(t, AuthCancelled, second.Trigger)
	assert.Equal(t, SignedOut, second.To)
	assert.Len(t, sub.C(), 0)
}

func TestSignOutWaitsForAvatarApplyInProgress(t *testing.T) {
	store := profile.NewStore(nil, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	loader := avatar.NewLoader(func(img *avatar.Image) {
		close(entered)
		<-release
		store.SetAvatar(img)
	})
	c := NewController(store, WithAvatarLoader(loader))
	signedIn(t, c)

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	loaded := make(chan avatar.Result)
	go func() {
		loaded <- loader.Load(context.Background(), avatar.Bytes(buf.Bytes()))
	}()
	<-entered

	signedOut := make(chan Transition)
	go func() {
		signedOut <- c.SignOut()
	}()

	select {
	case <-signedOut:
		t.Fatal("sign-out finished while an avatar was being applied")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	tr := <-signedOut
	res := <-loaded

	assert.True(t, tr.Applied)
	assert.Equal(t, avatar.StatusSuccess, res.Status)
	assert.Equal(t, SignedOut, c.Phase())
	assert.Nil(t, store.Snapshot().Avatar, "reset sign-out must win over the earlier load")
}

func TestConcurrentTriggersPublishInOrder(t *testing.T) {
	bus := events.NewBus(nil)
	defer bus.Close()
	sub := bus.Subscribe(events.TopicSession)

	c := NewController(profile.NewStore(nil, nil), WithBus(bus))

	const rounds = 15
	var wg sync.WaitGroup
	for _, fire := range []func() Transition{c.Begin, c.Cancel} {
		wg.Add(1)
		go func(fire func() Transition) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				fire()
			}
		}(fire)
	}
	wg.Wait()

	require.Zero(t, sub.Dropped())
	n := len(sub.C())
	require.NotZero(t, n)

	prev := Transition{To: SignedOut}
	for i := 0; i < n; i++ {
		var tr Transition
		require.NoError(t, (<-sub.C()).Decode(&tr))
		assert.Equal(t, prev.Seq+1, tr.Seq)
		assert.Equal(t, prev.To, tr.From, "event %d does not continue from the previous phase", tr.Seq)
		prev = tr
	}
	assert.Equal(t, c.Phase(), prev.To)
}

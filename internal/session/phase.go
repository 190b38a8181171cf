package session

import (
	"encoding/json"
	"fmt"
)

// Phase is the coarse application state that decides which screen is shown.
type Phase int

const (
	SignedOut Phase = iota
	SigningIn
	SignedIn
)

var phaseNames = map[Phase]string{
	SignedOut: "signed_out",
	SigningIn: "signing_in",
	SignedIn:  "signed_in",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for phase, name := range phaseNames {
		if name == s {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("session: unknown phase %q", s)
}

// Screen is the top-level view gated by a Phase.
type Screen string

const (
	ScreenWelcome Screen = "welcome"
	ScreenLogin   Screen = "login"
	ScreenHome    Screen = "home"
)

// Screen maps the phase to the screen the client should present.
func (p Phase) Screen() Screen {
	switch p {
	case SigningIn:
		return ScreenLogin
	case SignedIn:
		return ScreenHome
	default:
		return ScreenWelcome
	}
}

// Trigger is an input to the session state machine.
type Trigger int

const (
	BeginSignIn Trigger = iota + 1
	AuthSucceeded
	AuthFailed
	AuthCancelled
	SignOut
)

func (t Trigger) String() string {
	switch t {
	case BeginSignIn:
		return "begin_sign_in"
	case AuthSucceeded:
		return "auth_succeeded"
	case AuthFailed:
		return "auth_failed"
	case AuthCancelled:
		return "auth_cancelled"
	case SignOut:
		return "sign_out"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}

func (t Trigger) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Trigger) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, candidate := range Triggers() {
		if candidate.String() == s {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("session: unknown trigger %q", s)
}

type edge struct {
	from    Phase
	trigger Trigger
}

var transitions = map[edge]Phase{
	{SignedOut, BeginSignIn}:   SigningIn,
	{SigningIn, AuthSucceeded}: SignedIn,
	{SigningIn, AuthFailed}:    SignedOut,
	{SigningIn, AuthCancelled}: SignedOut,
	{SignedIn, SignOut}:        SignedOut,
}

// Next returns the successor of from under trigger. Pairs without a defined
// edge leave the phase unchanged and report false.
func Next(from Phase, trigger Trigger) (Phase, bool) {
	to, ok := transitions[edge{from, trigger}]
	if !ok {
		return from, false
	}
	return to, true
}

// Phases lists every phase in declaration order.
func Phases() []Phase {
	return []Phase{SignedOut, SigningIn, SignedIn}
}

// Triggers lists every trigger in declaration order.
func Triggers() []Trigger {
	return []Trigger{BeginSignIn, AuthSucceeded, AuthFailed, AuthCancelled, SignOut}
}

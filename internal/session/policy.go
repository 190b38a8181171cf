package session

import (
	"fmt"
	"strings"
)

// SignOutPolicy decides what happens to the profile when the user signs out.
type SignOutPolicy string

const (
	// PolicyReset restores the profile defaults and drops any in-flight avatar load.
	PolicyReset SignOutPolicy = "reset"
	// PolicyKeep leaves the last known profile in place for the next sign-in.
	PolicyKeep SignOutPolicy = "keep"
)

// ParseSignOutPolicy accepts "reset" or "keep" in any case. An empty string
// selects PolicyReset.
func ParseSignOutPolicy(s string) (SignOutPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyReset):
		return PolicyReset, nil
	case string(PolicyKeep):
		return PolicyKeep, nil
	default:
		return "", fmt.Errorf("session: invalid sign-out policy %q (want reset or keep)", s)
	}
}

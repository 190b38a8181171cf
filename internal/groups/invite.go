package groups

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"strings"
)

const (
	DefaultInviteBaseURL = "https://cleersplit.app/invite/"
	InviteCodeLength     = 6
	inviteAlphabet       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Invite is a shareable link into a group.
type Invite struct {
	Code    string `json:"code"`
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

// NewInvite creates an invite with a random upper-case code under baseURL.
// An empty baseURL uses DefaultInviteBaseURL.
func NewInvite(baseURL string) (Invite, error) {
	if baseURL == "" {
		baseURL = DefaultInviteBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return Invite{}, fmt.Errorf("groups: invalid invite base URL %q", baseURL)
	}

	code, err := inviteCode(InviteCodeLength)
	if err != nil {
		return Invite{}, err
	}
	return Invite{
		Code: code,
		URL:  base.JoinPath(code).String(),
	}, nil
}

func inviteCode(n int) (string, error) {
	max := big.NewInt(int64(len(inviteAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("groups: generate invite code: %w", err)
		}
		b[i] = inviteAlphabet[idx.Int64()]
	}
	return string(b), nil
}

// InviteMessage is the text shared alongside the invite link.
func InviteMessage(groupName, inviteURL string) string {
	return fmt.Sprintf("Join “%s” on CleerSplit: %s", strings.TrimSpace(groupName), inviteURL)
}

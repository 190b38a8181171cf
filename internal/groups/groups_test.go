package groups

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/cleersplit-backend/pkg/utils"
)

func fields(t *testing.T, err error) []string {
	t.Helper()
	if err == nil {
		return nil
	}
	var verrs utils.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %T", err)
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, e.Field)
	}
	return out
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  []string
	}{
		{
			name:  "valid",
			draft: Draft{Type: TypeRoommates, Name: "Flat 4B", Description: "Rent and bills"},
		},
		{
			name:  "valid custom",
			draft: Draft{Type: TypeCustom, CustomType: "Book club", Name: "Readers"},
		},
		{
			name:  "missing everything",
			draft: Draft{},
			want:  []string{"type", "name"},
		},
		{
			name:  "type in any case",
			draft: Draft{Type: "Friends", Name: "Trip"},
		},
		{
			name:  "padded custom type",
			draft: Draft{Type: " custom ", CustomType: "Band", Name: "Gig fund"},
		},
		{
			name:  "padded custom type without label",
			draft: Draft{Type: " CUSTOM ", Name: "Gig fund"},
			want:  []string{"custom_type"},
		},
		{
			name:  "blank type",
			draft: Draft{Type: "  ", Name: "Trip"},
			want:  []string{"type"},
		},
		{
			name:  "unknown type",
			draft: Draft{Type: "pets", Name: "Dogs"},
			want:  []string{"type"},
		},
		{
			name:  "custom without label",
			draft: Draft{Type: TypeCustom, CustomType: "   ", Name: "Readers"},
			want:  []string{"custom_type"},
		},
		{
			name:  "blank name",
			draft: Draft{Type: TypeFriends, Name: " \n"},
			want:  []string{"name"},
		},
		{
			name:  "description too long",
			draft: Draft{Type: TypeFamily, Name: "Family", Description: strings.Repeat("x", 41)},
			want:  []string{"description"},
		},
		{
			name:  "description counted in characters",
			draft: Draft{Type: TypeFamily, Name: "Family", Description: strings.Repeat("é", 40)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fields(t, tt.draft.Validate()))
		})
	}
}

func TestDraftNormalize(t *testing.T) {
	d := Draft{
		Type:        " Custom ",
		CustomType:  "  Book club ",
		Name:        "  Readers  ",
		Description: strings.Repeat("ab", 30),
	}.Normalize()

	assert.Equal(t, TypeCustom, d.Type)
	assert.Equal(t, "Book club", d.CustomType)
	assert.Equal(t, "Readers", d.Name)
	assert.Len(t, []rune(d.Description), MaxDescriptionLength)
	assert.NoError(t, d.Validate())
	assert.Equal(t, "Book club", d.Label())
}

func TestTypes(t *testing.T) {
	assert.Len(t, Types(), 6)
	for _, typ := range Types() {
		assert.True(t, typ.Valid())
		assert.NotEmpty(t, typ.Title())
	}

	typ, err := ParseType("CoWorkers")
	require.NoError(t, err)
	assert.Equal(t, TypeCoworkers, typ)
	assert.Equal(t, "Coworkers", Draft{Type: typ}.Label())

	_, err = ParseType("pets")
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Flat 4B":             "flat-4b",
		"  Trip to Lisbon!  ": "trip-to-lisbon",
		"rent__and--bills":    "rent-and-bills",
		"Café Crew":           "caf-crew",
		"!!!":                 "group",
		"":                    "group",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestNewInvite(t *testing.T) {
	codeRe := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	inv, err := NewInvite("")
	require.NoError(t, err)
	assert.Regexp(t, codeRe, inv.Code)
	assert.Equal(t, DefaultInviteBaseURL+inv.Code, inv.URL)

	inv, err = NewInvite("https://staging.cleersplit.app/join")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.cleersplit.app/join/"+inv.Code, inv.URL)

	_, err = NewInvite("not a url")
	assert.Error(t, err)
}

func TestInviteCodesDiffer(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		inv, err := NewInvite("")
		require.NoError(t, err)
		seen[inv.Code] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestInviteMessage(t *testing.T) {
	assert.Equal(t,
		"Join “Flat 4B” on CleerSplit: https://cleersplit.app/invite/ABC123",
		InviteMessage(" Flat 4B ", "https://cleersplit.app/invite/ABC123"))
}

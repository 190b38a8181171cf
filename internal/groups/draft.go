package groups

import (
	"fmt"
	"strings"

	"github.com/AnshRaj112/cleersplit-backend/pkg/utils"
)

// MaxDescriptionLength is counted in characters, not bytes.
const MaxDescriptionLength = 40

// Type is the kind of group chosen on the first creation step.
type Type string

const (
	TypeFriends   Type = "friends"
	TypeFamily    Type = "family"
	TypeRoommates Type = "roommates"
	TypeStudents  Type = "students"
	TypeCoworkers Type = "coworkers"
	TypeCustom    Type = "custom"
)

var typeTitles = map[Type]string{
	TypeFriends:   "Friends",
	TypeFamily:    "Family",
	TypeRoommates: "Roommates",
	TypeStudents:  "Students",
	TypeCoworkers: "Coworkers",
	TypeCustom:    "Custom",
}

// Types lists the selectable group types in display order.
func Types() []Type {
	return []Type{TypeFriends, TypeFamily, TypeRoommates, TypeStudents, TypeCoworkers, TypeCustom}
}

// ParseType accepts a type name in any case.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := typeTitles[t]; !ok {
		return "", fmt.Errorf("groups: unknown group type %q", s)
	}
	return t, nil
}

func (t Type) Valid() bool {
	_, ok := typeTitles[t]
	return ok
}

func (t Type) Title() string {
	return typeTitles[t]
}

// Draft is a group being set up, before it is created.
type Draft struct {
	Type        Type   `json:"type"`
	CustomType  string `json:"custom_type,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Label is the group type shown to members. Custom groups use their own label.
func (d Draft) Label() string {
	if d.Type == TypeCustom {
		return strings.TrimSpace(d.CustomType)
	}
	return d.Type.Title()
}

// Normalize trims the free-text fields and cuts the description to
// MaxDescriptionLength characters, the way the input field does.
func (d Draft) Normalize() Draft {
	d.Type = Type(strings.ToLower(strings.TrimSpace(string(d.Type))))
	d.CustomType = strings.TrimSpace(d.CustomType)
	d.Name = strings.TrimSpace(d.Name)
	d.Description = utils.TruncateRunes(d.Description, MaxDescriptionLength)
	return d
}

// Validate returns utils.ValidationErrors listing every failed field, or nil.
// The type is matched in any case, as ParseType does.
func (d Draft) Validate() error {
	var errs utils.ValidationErrors

	typ, typeErr := ParseType(string(d.Type))
	switch {
	case utils.IsBlank(string(d.Type)):
		errs.Add("type", "Group type is required")
	case typeErr != nil:
		errs.Add("type", fmt.Sprintf("Unknown group type %q", d.Type))
	case typ == TypeCustom && utils.IsBlank(d.CustomType):
		errs.Add("custom_type", "Custom group type needs a name")
	}

	if utils.IsBlank(d.Name) {
		errs.Add("name", "Group name is required")
	}
	if utils.RuneLen(d.Description) > MaxDescriptionLength {
		errs.Add("description", fmt.Sprintf("Description must be at most %d characters", MaxDescriptionLength))
	}

	return errs.Err()
}

package privilege

import "strings"

// Action is the smallest unit of privilege, e.g. "edit-post".
type Action struct {
	name        string
	description string
}

func NewAction(name, description string) Action {
	return Action{
		name:        strings.TrimSpace(name),
		description: description,
	}
}

func (a Action) Name() string        { return a.name }
func (a Action) Description() string { return a.description }

// IsEmpty reports whether a is the default-deny value returned for missing actions.
func (a Action) IsEmpty() bool { return a.name == "" }

func (a Action) Equal(other Action) bool {
	return a.name == other.name && a.description == other.description
}

package privilege

import "strings"

// Permission is a named bundle of actions.
type Permission struct {
	name    string
	actions Set[Action]
}

// NewPermission builds a permission. Actions sharing a name collapse to the
// first occurrence.
func NewPermission(name string, actions ...Action) Permission {
	p := Permission{name: strings.TrimSpace(name)}
	for _, a := range actions {
		p.addAction(a)
	}
	return p
}

// addAction is only reachable while NewPermission assembles the value.
func (p *Permission) addAction(a Action) bool {
	return p.actions.add(a)
}

func (p Permission) Name() string         { return p.name }
func (p Permission) Actions() Set[Action] { return p.actions }
func (p Permission) IsEmpty() bool        { return p.name == "" && p.actions.Len() == 0 }

// Equal compares by name and by the names of the contained actions.
func (p Permission) Equal(other Permission) bool {
	return p.name == other.name && p.actions.SameNames(other.actions)
}

// ContainsAction reports whether action belongs to permission, compared by name.
func ContainsAction(permission Permission, action Action) bool {
	return permission.actions.Contains(action.Name())
}

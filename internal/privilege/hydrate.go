package privilege

import (
	"fmt"
	"sort"
)

// Row is one storage row keyed by column name.
type Row map[string]any

// Hydrator turns storage rows into values of T.
//
// When Hydrate receives constructor columns, Construct owns assembly: it gets
// the values of exactly those columns, in order, and nothing runs afterwards.
// Otherwise every column with an entry in Fields is assigned onto a zero T and
// Finalize normalizes the result. Columns without a Fields entry are dropped in
// both cases; T never grows state that its attribute list does not declare.
type Hydrator[T any] struct {
	Fields    map[string]func(*T, any)
	Finalize  func(T) T
	Construct func(args []any) T
}

// Hydrate builds one value from row. The strategy is picked solely by whether
// ctorColumns is empty.
func (h Hydrator[T]) Hydrate(row Row, ctorColumns ...string) T {
	if len(ctorColumns) > 0 {
		args := make([]any, len(ctorColumns))
		for i, col := range ctorColumns {
			args[i] = row[col]
		}
		return h.Construct(args)
	}

	var out T
	for col, value := range row {
		if assign, ok := h.Fields[col]; ok {
			assign(&out, value)
		}
	}
	if h.Finalize != nil {
		out = h.Finalize(out)
	}
	return out
}

// Discarded lists the columns of row that the chosen strategy ignores, sorted.
func (h Hydrator[T]) Discarded(row Row, ctorColumns ...string) []string {
	used := make(map[string]struct{}, len(ctorColumns))
	if len(ctorColumns) > 0 {
		for _, col := range ctorColumns {
			used[col] = struct{}{}
		}
	} else {
		for col := range h.Fields {
			used[col] = struct{}{}
		}
	}

	var dropped []string
	for col := range row {
		if _, ok := used[col]; !ok {
			dropped = append(dropped, col)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// Arg returns args[i], or nil when the constructor received fewer arguments.
func Arg(args []any, i int) any {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

// AsString converts a driver value to a string. nil becomes "".
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

var (
	// ActionColumns are the constructor columns of an action row.
	ActionColumns = []string{"name", "description"}
	// PermissionColumns are the constructor columns of a permission row.
	PermissionColumns = []string{"name"}
	// RoleColumns are the constructor columns of a role row.
	RoleColumns = []string{"name"}
)

var ActionHydrator = Hydrator[Action]{
	Fields: map[string]func(*Action, any){
		"name":        func(a *Action, v any) { a.name = AsString(v) },
		"description": func(a *Action, v any) { a.description = AsString(v) },
	},
	Finalize: func(a Action) Action {
		return NewAction(a.name, a.description)
	},
	Construct: func(args []any) Action {
		return NewAction(AsString(Arg(args, 0)), AsString(Arg(args, 1)))
	},
}

// PermissionHydrator builds the member-less permission header; stores attach
// actions afterwards through NewPermission.
var PermissionHydrator = Hydrator[Permission]{
	Fields: map[string]func(*Permission, any){
		"name": func(p *Permission, v any) { p.name = AsString(v) },
	},
	Finalize: func(p Permission) Permission {
		return NewPermission(p.name)
	},
	Construct: func(args []any) Permission {
		return NewPermission(AsString(Arg(args, 0)))
	},
}

var RoleHydrator = Hydrator[Role]{
	Fields: map[string]func(*Role, any){
		"name": func(r *Role, v any) { r.name = AsString(v) },
	},
	Finalize: func(r Role) Role {
		return NewRole(r.name)
	},
	Construct: func(args []any) Role {
		return NewRole(AsString(Arg(args, 0)))
	},
}

// PermissionFromRows assembles a permission from its header and the actions
// already resolved for it.
func PermissionFromRows(header Permission, actions []Action) Permission {
	return NewPermission(header.Name(), actions...)
}

// RoleFromRows assembles a role from its header and resolved permissions.
func RoleFromRows(header Role, permissions []Permission) Role {
	return NewRole(header.Name(), permissions...)
}

package user

import (
	"encoding/json"

	"github.com/frahmantamala/access-control/internal/privilege"
)

// Columns are the constructor columns of a user row.
var Columns = []string{"name", "id", "public_meta", "private_meta"}

// Hydrator builds the role-less user header from a users row; stores attach
// roles through FromRows.
var Hydrator = privilege.Hydrator[User]{
	Fields: map[string]func(*User, any){
		"name":         func(u *User, v any) { u.name = privilege.AsString(v) },
		"id":           func(u *User, v any) { u.id = privilege.AsString(v) },
		"public_meta":  func(u *User, v any) { u.publicMeta = DecodeMeta(v) },
		"private_meta": func(u *User, v any) { u.privateMeta = DecodeMeta(v) },
	},
	Finalize: func(u User) User {
		return restore(u.name, u.id, u.publicMeta, u.privateMeta)
	},
	Construct: func(args []any) User {
		return restore(
			privilege.AsString(privilege.Arg(args, 0)),
			privilege.AsString(privilege.Arg(args, 1)),
			DecodeMeta(privilege.Arg(args, 2)),
			DecodeMeta(privilege.Arg(args, 3)),
		)
	},
}

// FromRows attaches resolved roles to a hydrated header.
func FromRows(header User, roles []privilege.Role) User {
	return header.WithRoles(roles...)
}

// DecodeMeta reads a JSON object column. Anything unreadable becomes an empty map.
func DecodeMeta(v any) map[string]string {
	switch t := v.(type) {
	case map[string]string:
		return cloneMeta(t)
	case nil:
		return map[string]string{}
	}

	raw := privilege.AsString(v)
	if raw == "" {
		return map[string]string{}
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return map[string]string{}
	}
	return out
}

// EncodeMeta renders metadata for a text column.
func EncodeMeta(m map[string]string) (string, error) {
	if m == nil {
		m = map[string]string{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

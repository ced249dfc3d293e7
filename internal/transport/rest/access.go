package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/privilege"
	"github.com/frahmantamala/access-control/internal/transport"
)

type AccessChecker interface {
	Validate(ctx context.Context, username string, required []string) (bool, error)
}

type RoleLister interface {
	ReadAll(ctx context.Context) ([]privilege.Role, error)
}

type AccessResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Allowed  bool     `json:"allowed"`
}

type RoleResponse struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type AccessHandler struct {
	*transport.BaseHandler
	validator AccessChecker
	roles     RoleLister
}

func NewAccessHandler(base *transport.BaseHandler, validator AccessChecker, roles RoleLister) *AccessHandler {
	return &AccessHandler{BaseHandler: base, validator: validator, roles: roles}
}

// Check answers whether the claimed user may reach a resource guarded by the
// comma separated roles query parameter.
func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	username := internal.UsernameFromContext(r.Context())
	required := splitRoles(r.URL.Query().Get("roles"))

	allowed, err := h.validator.Validate(r.Context(), username, required)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AccessResponse{Username: username, Roles: required, Allowed: allowed})
}

// ListRoles returns every stored role with its permission names.
func (h *AccessHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.ReadAll(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	out := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, RoleResponse{Name: role.Name(), Permissions: role.Permissions().SortedNames()})
	}
	h.WriteJSON(w, http.StatusOK, out)
}

func splitRoles(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/pos-backoffice/internal/domain/permission"
	"github.com/xenking/pos-backoffice/pkg/httpmiddleware"
)

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	groups, err := h.permissions.Groups(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeGroups(e, groups) })
}

func (h *Handler) getRolePermissions(w http.ResponseWriter, r *http.Request) {
	role := r.PathValue("role")
	groups, err := h.permissions.RoleGroups(r.Context(), role)
	if err != nil {
		if errors.Is(err, permission.ErrRoleNotFound) {
			httpmiddleware.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("roleName", func(e *jx.Encoder) { e.Str(role) })
			e.Field("groups", func(e *jx.Encoder) { encodeGroups(e, groups) })
		})
	})
}

// saveRolePermissions stores the selection made in the role editor. The body
// is {"groups":[...]} as returned by the GET endpoint with isSelected edited.
func (h *Handler) saveRolePermissions(w http.ResponseWriter, r *http.Request) {
	var groups []permission.Group
	if !decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "groups" {
			return d.Skip()
		}
		var err error
		groups, err = decodeGroups(d)
		return fieldError(err, key)
	}) {
		return
	}

	role := r.PathValue("role")
	ids, err := h.permissions.SaveRole(r.Context(), role, groups)
	if err != nil {
		internalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("roleName", func(e *jx.Encoder) { e.Str(role) })
			e.Field("permissionIds", func(e *jx.Encoder) { encodeStrings(e, ids) })
		})
	})
}

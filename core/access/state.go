package access

// State is a snapshot of a client's authorization.
type State struct {
	User        *User         `json:"user"`
	Permissions PermissionSet `json:"-"`
	IsLoading   bool          `json:"is_loading"`
	Error       string        `json:"error,omitempty"` // empty when none
}

// Querier answers permission checks.
type Querier interface {
	HasPermission(p Permission) bool
	HasAnyPermission(perms ...Permission) bool
	HasAllPermissions(perms ...Permission) bool
	HasRole(r Role) bool
}

var _ Querier = State{}

func (st State) clone() State {
	clone := st
	if st.User != nil {
		u := *st.User
		clone.User = &u
	}
	clone.Permissions = st.Permissions.Clone()
	return clone
}

// HasPermission reports whether p is held. Tokens outside the vocabulary never match.
func (st State) HasPermission(p Permission) bool {
	return p.Known() && st.Permissions.Has(p)
}

// HasAnyPermission reports whether at least one of perms is held. No perms means no constraint.
func (st State) HasAnyPermission(perms ...Permission) bool {
	if len(perms) == 0 {
		return true
	}
	for _, p := range perms {
		if st.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every one of perms is held. No perms means no constraint.
func (st State) HasAllPermissions(perms ...Permission) bool {
	for _, p := range perms {
		if !st.HasPermission(p) {
			return false
		}
	}
	return true
}

// HasRole reports whether the user has role r. False when signed out.
func (st State) HasRole(r Role) bool {
	return st.User != nil && st.User.Role == r
}

// GetPermissions returns a copy of the held permissions.
func (st State) GetPermissions() PermissionSet {
	return st.Permissions.Clone()
}

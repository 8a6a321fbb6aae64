package access

// Constraints is what a gate requires. Zero fields are not constrained.
type Constraints struct {
	Permission Permission   // must be held
	AnyOf      []Permission // at least one must be held
	AllOf      []Permission // all must be held
	Role       Role         // user must have this role
}

// Allows reports whether q satisfies every specified constraint.
func (c Constraints) Allows(q Querier) bool {
	if c.Permission != "" && !q.HasPermission(c.Permission) {
		return false
	}
	if c.AnyOf != nil && !q.HasAnyPermission(c.AnyOf...) {
		return false
	}
	if c.AllOf != nil && !q.HasAllPermissions(c.AllOf...) {
		return false
	}
	if c.Role != "" && !q.HasRole(c.Role) {
		return false
	}
	return true
}

// Gate renders children when its Constraints are satisfied, and Fallback otherwise.
// It holds no state of its own: every Render re-evaluates against q, so a Store-backed
// gate follows permission changes without being rebuilt.
type Gate[R any] struct {
	Constraints Constraints
	Fallback    func() R // nil renders the zero R
}

func (g Gate[R]) Render(q Querier, children func() R) R {
	if g.Constraints.Allows(q) {
		return children()
	}
	if g.Fallback == nil {
		var zero R
		return zero
	}
	return g.Fallback()
}

// WithGuard wraps component so that it only renders when c is satisfied by q,
// rendering fallback (or the zero R when nil) otherwise.
func WithGuard[P, R any](q Querier, component func(P) R, c Constraints, fallback func(P) R) func(P) R {
	return func(props P) R {
		if c.Allows(q) {
			return component(props)
		}
		if fallback == nil {
			var zero R
			return zero
		}
		return fallback(props)
	}
}

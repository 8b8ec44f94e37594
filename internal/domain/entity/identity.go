package entity

// Identity is the authenticated user acting on a request. It is resolved
// once per request at the HTTP boundary and threaded explicitly into every
// operation that needs it; nothing reads ambient user state.
type Identity struct {
	UserID   int64
	UserName string
}

// IsZero reports whether no identity was resolved.
func (i Identity) IsZero() bool {
	return i.UserID == 0
}

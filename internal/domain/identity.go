package domain

// Identity is the authenticated caller. It is passed explicitly into every
// service call that needs to know who is acting.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

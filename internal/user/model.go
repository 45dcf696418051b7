package user

import "errors"

var ErrNotFound = errors.New("user not found")

// User is the slice of the host application's account the billing core reads.
type User struct {
	ID    int64
	Email string
}

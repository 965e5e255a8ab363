package domain

import "errors"

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for common business logic failures.
var (
	ErrUserAlreadyExists  = errors.New("user with this username or email already exists")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials provided")
	ErrUserNotFound       = errors.New("user not found")

	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrEmailNotFound      = errors.New("email does not exist on this user")
	ErrLastEmail          = errors.New("removing the last email is not allowed")

	ErrRoomNotFound         = errors.New("room not found")
	ErrAlreadyJoined        = errors.New("user already joined this room")
	ErrOrganizationExists   = errors.New("organization already added")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrGroupNotFound        = errors.New("group not found")
	ErrResourceNotFound     = errors.New("resource not found")
)

package domain

import "errors"

var (
	// ErrNoDestinations is returned when the catalog is empty.
	ErrNoDestinations = errors.New("no destinations found")
	// ErrUserNotFound is returned for an unknown user identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameRequired indicates a request without a username.
	ErrUsernameRequired = errors.New("username is required")
	// ErrInvalidUsername indicates a username that is too long or has control characters.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrUsernameTaken is returned by stores when a username already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned when an admin login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAdminNotFound is returned by stores for an unknown admin username.
	ErrAdminNotFound = errors.New("admin not found")
	// ErrInvalidPassword is returned when an admin password does not meet the minimum length.
	ErrInvalidPassword = errors.New("password must be at least 8 characters")
	// ErrAdminExists is returned when creating an admin with a used username.
	ErrAdminExists = errors.New("admin already exists")
	// ErrUnauthorized is returned when an admin token is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
)

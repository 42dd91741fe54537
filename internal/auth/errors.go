package auth

import "errors"

var ErrInvalidCredentials = errors.New("invalid username or password")

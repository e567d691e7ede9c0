package repository

import "errors"

// ErrNotFound is returned when a conversation lookup, update or delete finds
// no row. The service layer translates it into the domain ErrNotFound so
// callers never see driver errors such as sql.ErrNoRows or redis.Nil.
var ErrNotFound = errors.New("repository: not found")

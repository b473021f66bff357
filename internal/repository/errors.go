// Package repository contains the data access layer: entity records and
// the SQL behind the location directory. Sentinel values that are shared
// across repositories live in this file so higher layers such as
// handlers can distinguish failure scenarios with errors.Is. Entity
// specific sentinels (ErrLocationNotFound and friends) are declared next
// to the repository that raises them.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation they
// are not allowed to perform on the target resource. Handlers should
// translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as a duplicate code in one of the reference
// tables. The location core itself never raises it; it is part of the
// shared contract so collaborator repositories and handlers translate
// conflicts into HTTP 409 uniformly.
var ErrConflict = errors.New("conflict")

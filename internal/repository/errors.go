// Package repository contains data access logic separated from HTTP
// handlers. This file defines sentinel errors reused across repositories
// so higher layers can distinguish failure scenarios with errors.Is.
package repository

import "errors"

// ErrDuplicateShareKey is returned when an insert violates the unique key
// over (project, customer, share_key). The creation path reacts by drawing
// a fresh share key.
var ErrDuplicateShareKey = errors.New("duplicate share key")

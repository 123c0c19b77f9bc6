package interfaces

import "errors"

// ErrDuplicateEvent is returned by LedgerRepository.Append when an entry
// with the same event ID already exists. Callers treat it as proof that the
// event's effect has already been applied.
var ErrDuplicateEvent = errors.New("duplicate event id")

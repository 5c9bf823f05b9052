package arrear

import (
	"github.com/cockroachdb/errors"
)

// Lifecycle errors of a ContiguousInterval. They are returned marked with
// ierr.ErrInvalidOperation.
var (
	ErrAlreadyBuilt           = errors.New("contiguous interval is already built")
	ErrNotBuilt               = errors.New("contiguous interval is not built")
	ErrNotEnoughBillingEvents = errors.New("not enough billing events to build the contiguous interval")
)

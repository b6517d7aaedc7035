package match

import "errors"

var (
    ErrNotFound          = errors.New("user not found")
    ErrInvalidTarget     = errors.New("invalid target user")
    ErrQuotaExceeded     = errors.New("quota exceeded")
    ErrDuplicateAction   = errors.New("action already recorded")
    ErrDependencyFailure = errors.New("dependency unavailable")
)

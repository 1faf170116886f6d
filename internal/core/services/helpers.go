package services

import (
	"errors"

	"github.com/cashkeep/cashkeep/internal/apperrors"
)

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}

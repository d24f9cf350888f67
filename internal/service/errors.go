package service

import (
	"errors"

	"saferoute/internal/domain"
	"saferoute/internal/repository"
)

var (
	// ErrInvalidCredentials never says which half of the pair was wrong.
	ErrInvalidCredentials = errors.New("Invalid username or password.")
	ErrNotFound           = errors.New("not found")
)

// ValidationError is the per-field rejection returned by every write path.
type ValidationError = domain.ValidationError

// notFound converts a repository miss into ErrNotFound and passes anything
// else through.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

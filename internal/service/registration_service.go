package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

// RegistrationNumberLength is the fixed width of registration numbers.
const RegistrationNumberLength = 8

type registrationNumberRepository interface {
	RegistrationNumberExists(ctx context.Context, number string) (bool, error)
}

// RegistrationService produces unique 8-digit registration numbers. The
// generator and the uniqueness check are deliberately separate steps so each
// can be tested in isolation.
type RegistrationService struct {
	repo   registrationNumberRepository
	logger *zap.Logger
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(repo registrationNumberRepository, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, logger: logger}
}

// GenerateCandidate returns a random 8-digit numeric string. Leading zeros
// are allowed; the value is an identifier, not a number.
func (s *RegistrationService) GenerateCandidate() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < RegistrationNumberLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate registration candidate: %w", err)
	}
	return fmt.Sprintf("%0*d", RegistrationNumberLength, n), nil
}

// Assign returns a registration number that no existing account holds.
// Collisions regenerate without an attempt cap; the loop only exits with a
// free number, a generator failure, or a store error. With an 8-digit space
// and realistic school sizes the first candidate is almost always free.
func (s *RegistrationService) Assign(ctx context.Context) (string, error) {
	for attempt := 1; ; attempt++ {
		candidate, err := s.GenerateCandidate()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate registration number")
		}

		exists, err := s.repo.RegistrationNumberExists(ctx, candidate)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration number")
		}
		if !exists {
			return candidate, nil
		}

		s.logger.Debug("registration number collision, retrying",
			zap.String("candidate", candidate),
			zap.Int("attempt", attempt),
		)
	}
}

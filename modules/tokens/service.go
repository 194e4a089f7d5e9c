package tokens

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/release-agent/pkg/apitoken"
)

// Service couples token issuance with persistence of the identifier hash.
type Service struct {
	repo   *Repository
	issuer *apitoken.Issuer
	log    *slog.Logger
}

func NewService(repo *Repository, issuer *apitoken.Issuer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, issuer: issuer, log: log}
}

// CreateToken issues a fresh bearer token for the user and persists its
// hash. The returned bearer value is the only copy that will ever exist:
// the caller must hand it to the operator immediately.
func (s *Service) CreateToken(ctx context.Context, userID int64, name string, expiresAt *time.Time) (*Token, string, error) {
	generated, err := s.issuer.Issue(expiresAt)
	if err != nil {
		return nil, "", fmt.Errorf("tokens: issue: %w", err)
	}

	token, err := s.repo.Create(ctx, userID, name, generated.HashedValue, expiresAt)
	if err != nil {
		return nil, "", err
	}

	s.log.InfoContext(ctx, "token created", "token_id", token.ID, "user_id", userID, "name", name)
	return token, generated.Value, nil
}

// SetActive activates or deactivates tokens by ID.
func (s *Service) SetActive(ctx context.Context, ids []int64, isActive bool) error {
	if err := s.repo.SetActive(ctx, ids, isActive); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "tokens activity changed", "ids", ids, "is_active", isActive)
	return nil
}

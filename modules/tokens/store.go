package tokens

import (
	"context"

	"github.com/dmitrymomot/release-agent/modules/auth"
)

// RevocationStore adapts the repository to the verifier's TokenStore
// interface, narrowing a full token row down to the three fields the
// revocation decision needs.
type RevocationStore struct {
	repo *Repository
}

func NewRevocationStore(repo *Repository) *RevocationStore {
	return &RevocationStore{repo: repo}
}

func (s *RevocationStore) FindByHash(ctx context.Context, hash string) (*auth.TokenRecord, error) {
	t, err := s.repo.FindByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}
	return &auth.TokenRecord{
		ID:          t.ID,
		IsActive:    t.IsActive,
		OwnerActive: t.OwnerActive,
	}, nil
}

package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/minepilot/minepilot/internal/repository"
)

// DefaultOwner scopes the shared memory document when no per-player
// partitioning is requested.
const DefaultOwner = "engine"

// PostgresStore keeps the memory document as a single jsonb row.
type PostgresStore struct {
	repo  *repository.Queries
	owner string
}

func NewPostgresStore(repo *repository.Queries, owner string) *PostgresStore {
	if owner == "" {
		owner = DefaultOwner
	}
	return &PostgresStore{repo: repo, owner: owner}
}

func (s *PostgresStore) Load(ctx context.Context) (*Data, error) {
	row, err := s.repo.FetchEngineMemory(ctx, s.owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to fetch memory document: %w", err)
	}
	var data Data
	if err := json.Unmarshal(row.Doc, &data); err != nil {
		return nil, fmt.Errorf("unable to decode memory document: %w", err)
	}
	return &data, nil
}

func (s *PostgresStore) Save(ctx context.Context, data *Data) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("unable to encode memory document: %w", err)
	}
	if _, err := s.repo.UpsertEngineMemory(ctx, s.owner, doc); err != nil {
		return fmt.Errorf("unable to upsert memory document: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type EngineMemory struct {
	Owner     string
	Doc       json.RawMessage
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

func (q *Queries) FetchEngineMemory(ctx context.Context, owner string) (*EngineMemory, error) {
	rows, _ := q.db.Query(
		ctx, "SELECT * FROM engine_memory WHERE owner = $1", owner,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[EngineMemory])
}

func (q *Queries) UpsertEngineMemory(
	ctx context.Context, owner string, doc json.RawMessage,
) (*EngineMemory, error) {
	args := pgx.NamedArgs{
		"owner": owner,
		"doc":   doc,
	}
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO engine_memory (owner, doc)
		VALUES (@owner, @doc)
		ON CONFLICT (owner) DO UPDATE
			SET doc = @doc, updated_at = now()
		RETURNING *;`,
		args,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[EngineMemory])
}

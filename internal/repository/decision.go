package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type InsertDecisionParams struct {
	Owner     string
	BoardRows int
	BoardCols int
	CellRow   *int
	CellCol   *int
	Tag       string
	Rationale string
}

func (q *Queries) InsertDecision(ctx context.Context, params InsertDecisionParams) error {
	args := pgx.NamedArgs{
		"owner":      params.Owner,
		"board_rows": params.BoardRows,
		"board_cols": params.BoardCols,
		"cell_row":   params.CellRow,
		"cell_col":   params.CellCol,
		"tag":        params.Tag,
		"rationale":  params.Rationale,
	}
	_, err := q.db.Exec(
		ctx,
		`INSERT INTO decision_log
			(owner, board_rows, board_cols, cell_row, cell_col, tag, rationale)
		VALUES
			(@owner, @board_rows, @board_cols, @cell_row, @cell_col, @tag, @rationale);`,
		args,
	)
	return err
}

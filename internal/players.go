package internal

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var playerCols = []string{"id", "username", "email", "pass_hash", "role"}

func scanPlayer(row pgx.Row) (*Player, error) {
	var p Player
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PassHash, &p.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func getPlayerByEmail(ctx context.Context, db DBTX, email string) (*Player, error) {
	q := psql.Select(playerCols...).From("players").Where("email = ?", email)
	return scanPlayer(qRow(ctx, db, q))
}

func getPlayerByID(ctx context.Context, db DBTX, id int) (*Player, error) {
	q := psql.Select(playerCols...).From("players").Where("id = ?", id)
	return scanPlayer(qRow(ctx, db, q))
}

func createPlayer(ctx context.Context, db DBTX, username, email, passHash string) (*Player, error) {
	q := psql.Insert("players").
		Columns("username", "email", "pass_hash", "role").
		Values(username, email, passHash, "player").
		Suffix("RETURNING id, username, email, pass_hash, role")
	return scanPlayer(qRow(ctx, db, q))
}

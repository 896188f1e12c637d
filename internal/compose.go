package internal

import (
	"context"
)

/* ===================== ROSTER COMPOSITION ===================== */

func getTeamMemberIDs(ctx context.Context, db DBTX, teamID int) ([]int, error) {
	q := psql.Select("character_id").From("compose").
		Where("party_id = ?", teamID).OrderBy("character_id ASC")
	rows, err := qQuery(ctx, db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func getTeamRoster(ctx context.Context, db DBTX, teamID int) ([]Character, error) {
	ids, err := getTeamMemberIDs(ctx, db, teamID)
	if err != nil {
		return nil, err
	}
	return getCharactersByIDs(ctx, db, ids)
}

// addTeamMember is a no-op when the character is already on the roster;
// the unique constraint backs up the route-layer pre-check.
func addTeamMember(ctx context.Context, db DBTX, teamID, characterID int) error {
	q := psql.Insert("compose").
		Columns("party_id", "character_id").
		Values(teamID, characterID).
		Suffix("ON CONFLICT DO NOTHING")
	_, err := qExec(ctx, db, q)
	return err
}

func removeTeamMember(ctx context.Context, db DBTX, teamID, characterID int) error {
	q := psql.Delete("compose").
		Where("party_id = ?", teamID).
		Where("character_id = ?", characterID)
	_, err := qExec(ctx, db, q)
	return err
}

func deleteTeamRoster(ctx context.Context, db DBTX, teamID int) error {
	_, err := qExec(ctx, db, psql.Delete("compose").Where("party_id = ?", teamID))
	return err
}

package internal

import (
	"context"
	"errors"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

/* ===================== SERVICE ===================== */

var teamCols = []string{"id", "name", "captain_id", "registered_id"}

func scanTeam(row pgx.Row) (*Team, error) {
	var t Team
	err := row.Scan(&t.ID, &t.Name, &t.CaptainID, &t.RegisteredID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTeams(rows pgx.Rows, err error) ([]Team, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CaptainID, &t.RegisteredID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func getTeams(ctx context.Context, db DBTX) ([]Team, error) {
	q := psql.Select(teamCols...).From("parties").
		Where("deleted = false").OrderBy("id ASC")
	return collectTeams(qQuery(ctx, db, q))
}

func getTeamByID(ctx context.Context, db DBTX, id int) (*Team, error) {
	q := psql.Select(teamCols...).From("parties").
		Where("id = ?", id).Where("deleted = false")
	return scanTeam(qRow(ctx, db, q))
}

func getTeamByRegisteredID(ctx context.Context, db DBTX, registeredID int) (*Team, error) {
	q := psql.Select(teamCols...).From("parties").
		Where("registered_id = ?", registeredID).Where("deleted = false")
	return scanTeam(qRow(ctx, db, q))
}

func getTeamsByCharacterIDs(ctx context.Context, db DBTX, characterIDs []int) ([]Team, error) {
	if len(characterIDs) == 0 {
		return nil, nil
	}
	q := psql.Select(teamCols...).From("parties").
		Where(sq.Eq{"captain_id": characterIDs}).
		Where("deleted = false").
		OrderBy("id ASC")
	return collectTeams(qQuery(ctx, db, q))
}

func insertTeam(ctx context.Context, db DBTX, captainID, registeredID int, name *string) (*Team, error) {
	q := psql.Insert("parties").
		Columns("name", "captain_id", "registered_id").
		Values(name, captainID, registeredID).
		Suffix("RETURNING id, name, captain_id, registered_id")
	return scanTeam(qRow(ctx, db, q))
}

func saveTeam(ctx context.Context, db DBTX, t Team) (*Team, error) {
	q := psql.Update("parties").
		Set("name", t.Name).
		Set("captain_id", t.CaptainID).
		Where("id = ?", t.ID).
		Suffix("RETURNING id, name, captain_id, registered_id")
	return scanTeam(qRow(ctx, db, q))
}

func softDeleteTeam(ctx context.Context, db DBTX, id int) error {
	q := psql.Update("parties").Set("deleted", true).Where("id = ?", id)
	_, err := qExec(ctx, db, q)
	return err
}

// createTeamForTournament registers the tournament entry, creates the party
// and puts the captain on its own roster as one unit.
func createTeamForTournament(ctx context.Context, db DB, tournamentID, captainID int, name *string) (*Team, error) {
	var team *Team
	err := withTx(ctx, db, func(tx pgx.Tx) error {
		reg, err := createRegistered(ctx, tx, tournamentID, time.Now())
		if err != nil {
			return err
		}
		team, err = insertTeam(ctx, tx, captainID, reg.ID, name)
		if err != nil {
			return err
		}
		return addTeamMember(ctx, tx, team.ID, captainID)
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// deleteTeamCascade soft-deletes the party and removes its registration and
// roster rows as one unit.
func deleteTeamCascade(ctx context.Context, db DB, team Team) error {
	return withTx(ctx, db, func(tx pgx.Tx) error {
		if err := softDeleteTeam(ctx, tx, team.ID); err != nil {
			return err
		}
		if err := deleteRegistered(ctx, tx, team.RegisteredID); err != nil {
			return err
		}
		return deleteTeamRoster(ctx, tx, team.ID)
	})
}

/* ===================== HANDLERS ===================== */

func ListTeams(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		teams, err := getTeams(c.Request.Context(), db)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(200, teams)
	}
}

func GetTeam(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		team, err := getTeamByID(c.Request.Context(), db, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if team == nil {
			Fail(c, NotFound("Team not found"))
			return
		}
		c.JSON(200, team)
	}
}

func TeamCharacters(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		ctx := c.Request.Context()

		team, err := getTeamByID(ctx, db, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if team == nil {
			Fail(c, NotFound("Team not found"))
			return
		}

		roster, err := getTeamRoster(ctx, db, team.ID)
		if err != nil {
			Fail(c, err)
			return
		}
		if roster == nil {
			roster = []Character{}
		}
		c.JSON(200, roster)
	}
}

func CreateTeam(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Tournament *struct {
				ID int `json:"id"`
			} `json:"tournament"`
			Character *struct {
				ID int `json:"id"`
			} `json:"character"`
			Team *struct {
				Name *string `json:"name"`
			} `json:"team"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, BadRequest("Invalid JSON body"))
			return
		}
		if req.Tournament == nil {
			Fail(c, BadRequest("Tournament object is required"))
			return
		}
		if req.Character == nil {
			Fail(c, BadRequest("Character object is required"))
			return
		}

		ctx := c.Request.Context()

		tournament, err := getTournamentByID(ctx, db, req.Tournament.ID)
		if err != nil {
			Fail(c, err)
			return
		}
		if tournament == nil {
			Fail(c, NotFound("Tournament not found"))
			return
		}
		if tournament.ended() {
			Fail(c, Forbidden("Tournament has ended"))
			return
		}

		captain, err := getCharacterByID(ctx, db, req.Character.ID)
		if err != nil {
			Fail(c, err)
			return
		}
		if captain == nil {
			Fail(c, NotFound("Character not found"))
			return
		}

		var name *string
		if req.Team != nil {
			name = req.Team.Name
		}
		team, err := createTeamForTournament(ctx, db, tournament.ID, captain.ID, name)
		if err != nil {
			Fail(c, err)
			return
		}

		actor := uid(c)
		logAction(db, &actor, "create_team", "team_id="+strconv.Itoa(team.ID))
		c.JSON(200, team)
	}
}

// captainedTeam finds id among the teams LoadTeams attached.
func captainedTeam(c *gin.Context, id int) *Team {
	for _, t := range requestTeams(c) {
		if t.ID == id {
			return &t
		}
	}
	return nil
}

// requireActiveTournament rejects mutations on a team whose tournament has
// already ended. Lookup failures come back untagged so ErrorHandler logs them.
func requireActiveTournament(ctx context.Context, db DBTX, teamID int) error {
	tournament, err := teamTournament(ctx, db, teamID)
	if err != nil {
		return err
	}
	if tournament != nil && tournament.ended() {
		return Forbidden("Tournament has ended")
	}
	return nil
}

func UpdateTeam(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		team := captainedTeam(c, id)
		if team == nil {
			Fail(c, NotFound("Team not found"))
			return
		}

		ctx := c.Request.Context()
		if err := requireActiveTournament(ctx, db, team.ID); err != nil {
			Fail(c, err)
			return
		}

		var req struct {
			CaptainID *int    `json:"captain_id"`
			Name      *string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, BadRequest("Invalid JSON body"))
			return
		}

		updated := *team
		if req.Name != nil {
			updated.Name = req.Name
		}
		if req.CaptainID != nil && *req.CaptainID != team.CaptainID {
			// the captain must always be a roster member
			members, err := getTeamMemberIDs(ctx, db, team.ID)
			if err != nil {
				Fail(c, err)
				return
			}
			if !containsInt(members, *req.CaptainID) {
				Fail(c, BadRequest("Captain must be a roster member"))
				return
			}
			updated.CaptainID = *req.CaptainID
		}

		saved, err := saveTeam(ctx, db, updated)
		if err != nil {
			Fail(c, err)
			return
		}

		actor := uid(c)
		logAction(db, &actor, "update_team", "team_id="+strconv.Itoa(id))
		c.JSON(200, saved)
	}
}

func DeleteTeam(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		team := captainedTeam(c, id)
		if team == nil {
			Fail(c, NotFound("Team not found"))
			return
		}

		ctx := c.Request.Context()
		if err := requireActiveTournament(ctx, db, team.ID); err != nil {
			Fail(c, err)
			return
		}

		if err := deleteTeamCascade(ctx, db, *team); err != nil {
			Fail(c, err)
			return
		}

		actor := uid(c)
		logAction(db, &actor, "delete_team", "team_id="+strconv.Itoa(id))
		c.JSON(200, team)
	}
}

func AddMembers(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}

		var req struct {
			Members []struct {
				ID int `json:"id"`
			} `json:"members"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Members == nil {
			Fail(c, BadRequest("Members array is required"))
			return
		}

		ctx := c.Request.Context()

		team, err := getTeamByID(ctx, db, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if team == nil {
			Fail(c, NotFound("Team not found"))
			return
		}
		if err := requireActiveTournament(ctx, db, team.ID); err != nil {
			Fail(c, err)
			return
		}

		existing, err := getTeamMemberIDs(ctx, db, team.ID)
		if err != nil {
			Fail(c, err)
			return
		}

		for _, member := range req.Members {
			if member.ID == 0 || containsInt(existing, member.ID) {
				continue
			}
			ch, err := getCharacterByID(ctx, db, member.ID)
			if err != nil {
				Fail(c, err)
				return
			}
			if ch == nil {
				continue
			}
			if err := addTeamMember(ctx, db, team.ID, ch.ID); err != nil {
				Fail(c, err)
				return
			}
			existing = append(existing, ch.ID)
		}

		actor := uid(c)
		logAction(db, &actor, "add_members", "team_id="+strconv.Itoa(id))
		c.JSON(200, team)
	}
}

func RemoveMember(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}

		var req struct {
			CharacterID *int `json:"character_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.CharacterID == nil {
			Fail(c, BadRequest("character_id is required"))
			return
		}

		ctx := c.Request.Context()

		team, err := getTeamByID(ctx, db, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if team == nil {
			Fail(c, NotFound("Team not found"))
			return
		}
		if err := requireActiveTournament(ctx, db, team.ID); err != nil {
			Fail(c, err)
			return
		}
		if *req.CharacterID == team.CaptainID {
			Fail(c, Forbidden("Cannot remove the team captain"))
			return
		}

		if err := removeTeamMember(ctx, db, team.ID, *req.CharacterID); err != nil {
			Fail(c, err)
			return
		}

		actor := uid(c)
		logAction(db, &actor, "remove_member", "team_id="+strconv.Itoa(id))
		c.JSON(200, team)
	}
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

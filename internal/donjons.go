package internal

import (
	"context"
	"errors"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

/* ===================== SERVICE ===================== */

var donjonCols = []string{"id", "name", "lvl"}

func collectDonjons(rows pgx.Rows, err error) ([]Donjon, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Donjon
	for rows.Next() {
		var d Donjon
		if err := rows.Scan(&d.ID, &d.Name, &d.Lvl); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func getDonjons(ctx context.Context, db DBTX) ([]Donjon, error) {
	q := psql.Select(donjonCols...).From("donjons").OrderBy("id ASC")
	return collectDonjons(qQuery(ctx, db, q))
}

func getDonjonByID(ctx context.Context, db DBTX, id int) (*Donjon, error) {
	q := psql.Select(donjonCols...).From("donjons").Where("id = ?", id)
	var d Donjon
	err := qRow(ctx, db, q).Scan(&d.ID, &d.Name, &d.Lvl)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func getDonjonsByMinLevel(ctx context.Context, db DBTX, level int) ([]Donjon, error) {
	q := psql.Select(donjonCols...).From("donjons").
		Where(sq.GtOrEq{"lvl": level}).OrderBy("lvl ASC")
	return collectDonjons(qQuery(ctx, db, q))
}

func getDonjonDone(ctx context.Context, db DBTX, teamID, donjonID int) (*DonjonDone, error) {
	q := psql.Select("party_id", "donjon_id", "timer").From("donjon_done").
		Where("party_id = ?", teamID).
		Where("donjon_id = ?", donjonID)
	var dd DonjonDone
	err := qRow(ctx, db, q).Scan(&dd.PartyID, &dd.DonjonID, &dd.Timer)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dd, nil
}

func createDonjonDone(ctx context.Context, db DBTX, teamID, donjonID, timer int) (*DonjonDone, error) {
	q := psql.Insert("donjon_done").
		Columns("party_id", "donjon_id", "timer").
		Values(teamID, donjonID, timer).
		Suffix("RETURNING party_id, donjon_id, timer")
	var dd DonjonDone
	if err := qRow(ctx, db, q).Scan(&dd.PartyID, &dd.DonjonID, &dd.Timer); err != nil {
		return nil, err
	}
	return &dd, nil
}

// getDonjonsCompletedByTeam lists a team's cleared dungeons with their timers.
func getDonjonsCompletedByTeam(ctx context.Context, db DBTX, teamID int) ([]DonjonCompleted, error) {
	q := psql.Select("d.id", "d.name", "d.lvl", "dd.timer").
		From("donjons d").
		Join("donjon_done dd ON dd.donjon_id = d.id").
		Where("dd.party_id = ?", teamID).
		OrderBy("d.name ASC")
	rows, err := qQuery(ctx, db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DonjonCompleted
	for rows.Next() {
		var dc DonjonCompleted
		if err := rows.Scan(&dc.ID, &dc.Name, &dc.Lvl, &dc.CompletionTime); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

/* ===================== HANDLERS ===================== */

func ListDonjons(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		donjons, err := getDonjons(c.Request.Context(), db)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(200, donjons)
	}
}

func GetDonjon(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		d, err := getDonjonByID(c.Request.Context(), db, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if d == nil {
			Fail(c, NotFound("Dungeon not found"))
			return
		}
		c.JSON(200, d)
	}
}

func DonjonsByLevel(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		level, err := strconv.Atoi(c.Param("level"))
		if err != nil {
			Fail(c, BadRequest("Level must be a number"))
			return
		}
		donjons, err := getDonjonsByMinLevel(c.Request.Context(), db, level)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(200, donjons)
	}
}

func TeamDonjons(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		teamID, apiErr := parseID(c, "teamId")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		completed, err := getDonjonsCompletedByTeam(c.Request.Context(), db, teamID)
		if err != nil {
			Fail(c, err)
			return
		}
		if completed == nil {
			completed = []DonjonCompleted{}
		}
		c.JSON(200, completed)
	}
}

func CompleteDonjon(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		donjonID, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}

		// two payload shapes are accepted: {team:{id}, donjon:{timer}}
		// and the flat {teamId, timer}
		var req struct {
			Team *struct {
				ID int `json:"id"`
			} `json:"team"`
			Donjon *struct {
				Timer *int `json:"timer"`
			} `json:"donjon"`
			TeamID *int `json:"teamId"`
			Timer  *int `json:"timer"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, BadRequest("Invalid JSON body"))
			return
		}

		var teamID, timer int
		switch {
		case req.Team != nil && req.Donjon != nil && req.Donjon.Timer != nil:
			teamID, timer = req.Team.ID, *req.Donjon.Timer
		case req.TeamID != nil && req.Timer != nil:
			teamID, timer = *req.TeamID, *req.Timer
		default:
			Fail(c, BadRequest("Team and timer are required"))
			return
		}

		ctx := c.Request.Context()

		donjon, err := getDonjonByID(ctx, db, donjonID)
		if err != nil {
			Fail(c, err)
			return
		}
		if donjon == nil {
			Fail(c, NotFound("Dungeon not found"))
			return
		}

		team, err := getTeamByID(ctx, db, teamID)
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

		existing, err := getDonjonDone(ctx, db, team.ID, donjon.ID)
		if err != nil {
			Fail(c, err)
			return
		}
		if existing != nil {
			Fail(c, BadRequest("Dungeon already completed by this team"))
			return
		}

		completion, err := createDonjonDone(ctx, db, team.ID, donjon.ID, timer)
		if err != nil {
			// a concurrent insert can slip past the pre-check and land on
			// the unique constraint
			if isUniqueViolation(err) {
				Fail(c, BadRequest("Dungeon already completed by this team"))
				return
			}
			Fail(c, err)
			return
		}

		actor := uid(c)
		logAction(db, &actor, "complete_donjon", "team_id="+strconv.Itoa(team.ID)+" donjon_id="+strconv.Itoa(donjon.ID))
		c.JSON(201, completion)
	}
}

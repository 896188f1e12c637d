package internal

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

/* ===================== TOURNAMENT SERVICE ===================== */

var tournamentCols = []string{"id", "name", "start_date", "end_date", "cost_to_registry", "description"}

func scanTournament(row pgx.Row) (*Tournament, error) {
	var t Tournament
	err := row.Scan(&t.ID, &t.Name, &t.StartDate, &t.EndDate, &t.CostToRegistry, &t.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func getTournaments(ctx context.Context, db DBTX) ([]Tournament, error) {
	q := psql.Select(tournamentCols...).From("tournament").
		Where("deleted = false").OrderBy("id ASC")
	rows, err := qQuery(ctx, db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tournament
	for rows.Next() {
		var t Tournament
		if err := rows.Scan(&t.ID, &t.Name, &t.StartDate, &t.EndDate, &t.CostToRegistry, &t.Description); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func getTournamentByID(ctx context.Context, db DBTX, id int) (*Tournament, error) {
	q := psql.Select(tournamentCols...).From("tournament").
		Where("id = ?", id).Where("deleted = false")
	return scanTournament(qRow(ctx, db, q))
}

func insertTournament(ctx context.Context, db DBTX, t Tournament) (*Tournament, error) {
	q := psql.Insert("tournament").
		Columns("name", "start_date", "end_date", "cost_to_registry", "description").
		Values(t.Name, t.StartDate, t.EndDate, t.CostToRegistry, t.Description).
		Suffix("RETURNING id, name, start_date, end_date, cost_to_registry, description")
	return scanTournament(qRow(ctx, db, q))
}

func saveTournament(ctx context.Context, db DBTX, t Tournament) (*Tournament, error) {
	q := psql.Update("tournament").
		Set("name", t.Name).
		Set("start_date", t.StartDate).
		Set("end_date", t.EndDate).
		Set("cost_to_registry", t.CostToRegistry).
		Set("description", t.Description).
		Where("id = ?", t.ID).
		Suffix("RETURNING id, name, start_date, end_date, cost_to_registry, description")
	return scanTournament(qRow(ctx, db, q))
}

func softDeleteTournament(ctx context.Context, db DBTX, id int) error {
	q := psql.Update("tournament").Set("deleted", true).Where("id = ?", id)
	_, err := qExec(ctx, db, q)
	return err
}

// ended reports whether the tournament is no longer active.
func (t *Tournament) ended() bool {
	return !t.EndDate.After(time.Now())
}

/* ===================== REGISTERED SERVICE ===================== */

func createRegistered(ctx context.Context, db DBTX, tournamentID int, date time.Time) (*Registered, error) {
	q := psql.Insert("registered").
		Columns("tournament_id", "registration_date").
		Values(tournamentID, date).
		Suffix("RETURNING id, tournament_id, registration_date")
	var r Registered
	if err := qRow(ctx, db, q).Scan(&r.ID, &r.TournamentID, &r.RegistrationDate); err != nil {
		return nil, err
	}
	return &r, nil
}

func getRegisteredByTournament(ctx context.Context, db DBTX, tournamentID int) ([]Registered, error) {
	q := psql.Select("id", "tournament_id", "registration_date").From("registered").
		Where("tournament_id = ?", tournamentID).OrderBy("id ASC")
	rows, err := qQuery(ctx, db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Registered
	for rows.Next() {
		var r Registered
		if err := rows.Scan(&r.ID, &r.TournamentID, &r.RegistrationDate); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func getRegisteredByTeam(ctx context.Context, db DBTX, teamID int) (*Registered, error) {
	q := psql.Select("r.id", "r.tournament_id", "r.registration_date").
		From("registered r").
		Join("parties p ON p.registered_id = r.id").
		Where("p.id = ?", teamID)
	var r Registered
	err := qRow(ctx, db, q).Scan(&r.ID, &r.TournamentID, &r.RegistrationDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func deleteRegistered(ctx context.Context, db DBTX, id int) error {
	_, err := qExec(ctx, db, psql.Delete("registered").Where("id = ?", id))
	return err
}

// teamTournament resolves the tournament a team is registered for.
func teamTournament(ctx context.Context, db DBTX, teamID int) (*Tournament, error) {
	reg, err := getRegisteredByTeam(ctx, db, teamID)
	if err != nil || reg == nil {
		return nil, err
	}
	return getTournamentByID(ctx, db, reg.TournamentID)
}

/* ===================== HANDLERS ===================== */

type tournamentInput struct {
	Name           string     `json:"name"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	CostToRegistry *int       `json:"cost_to_registry"`
	Description    string     `json:"description"`
}

// validateTournamentInput applies the field and date rules. requireFuture
// only holds at creation time.
func validateTournamentInput(req tournamentInput, requireFuture bool) *apiError {
	if req.Name == "" || req.StartDate == nil || req.EndDate == nil || req.CostToRegistry == nil || req.Description == "" {
		return BadRequest("Name, start_date, end_date, cost_to_registry and description are required")
	}
	if *req.CostToRegistry < 0 {
		return BadRequest("cost_to_registry must be >= 0")
	}
	if !req.EndDate.After(*req.StartDate) {
		return BadRequest("end_date must be after start_date")
	}
	if requireFuture && req.EndDate.Before(time.Now()) {
		return BadRequest("end_date must not be in the past")
	}
	return nil
}

func ListTournaments(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tournaments, err := getTournaments(c.Request.Context(), db)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(200, tournaments)
	}
}

func GetTournament(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		t, err := getTournamentByID(c.Request.Context(), db, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if t == nil {
			Fail(c, NotFound("Tournament not found"))
			return
		}
		c.JSON(200, t)
	}
}

func TournamentTeams(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		ctx := c.Request.Context()

		t, err := getTournamentByID(ctx, db, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if t == nil {
			Fail(c, NotFound("Tournament not found"))
			return
		}

		entries, err := getRegisteredByTournament(ctx, db, t.ID)
		if err != nil {
			Fail(c, err)
			return
		}

		teams := []Team{}
		for _, entry := range entries {
			team, err := getTeamByRegisteredID(ctx, db, entry.ID)
			if err != nil {
				Fail(c, err)
				return
			}
			if team != nil {
				teams = append(teams, *team)
			}
		}
		c.JSON(200, teams)
	}
}

func CreateTournament(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tournamentInput
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, BadRequest("Invalid JSON body"))
			return
		}
		if apiErr := validateTournamentInput(req, true); apiErr != nil {
			Fail(c, apiErr)
			return
		}

		t, err := insertTournament(c.Request.Context(), db, Tournament{
			Name:           req.Name,
			StartDate:      *req.StartDate,
			EndDate:        *req.EndDate,
			CostToRegistry: *req.CostToRegistry,
			Description:    req.Description,
		})
		if err != nil {
			Fail(c, err)
			return
		}

		actor := uid(c)
		logAction(db, &actor, "create_tournament", "tournament_id="+strconv.Itoa(t.ID))
		c.JSON(201, t)
	}
}

func UpdateTournament(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		existing, err := getTournamentByID(c.Request.Context(), db, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if existing == nil {
			Fail(c, NotFound("Tournament not found"))
			return
		}
		if existing.ended() {
			Fail(c, Forbidden("Tournament has ended"))
			return
		}

		var req tournamentInput
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, BadRequest("Invalid JSON body"))
			return
		}
		if apiErr := validateTournamentInput(req, false); apiErr != nil {
			Fail(c, apiErr)
			return
		}

		updated, err := saveTournament(c.Request.Context(), db, Tournament{
			ID:             id,
			Name:           req.Name,
			StartDate:      *req.StartDate,
			EndDate:        *req.EndDate,
			CostToRegistry: *req.CostToRegistry,
			Description:    req.Description,
		})
		if err != nil {
			Fail(c, err)
			return
		}

		actor := uid(c)
		logAction(db, &actor, "update_tournament", "tournament_id="+strconv.Itoa(id))
		c.JSON(200, updated)
	}
}

func DeleteTournament(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		existing, err := getTournamentByID(c.Request.Context(), db, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if existing == nil {
			Fail(c, NotFound("Tournament not found"))
			return
		}
		if existing.ended() {
			Fail(c, Forbidden("Tournament has ended"))
			return
		}

		if err := softDeleteTournament(c.Request.Context(), db, id); err != nil {
			Fail(c, err)
			return
		}

		actor := uid(c)
		logAction(db, &actor, "delete_tournament", "tournament_id="+strconv.Itoa(id))
		c.JSON(200, existing)
	}
}

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

var characterCols = []string{"id", "name", "role_id", "class_id", "ilvl", "rio"}

func scanCharacter(row pgx.Row) (*Character, error) {
	var ch Character
	err := row.Scan(&ch.ID, &ch.Name, &ch.RoleID, &ch.ClassID, &ch.Ilvl, &ch.Rio)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func collectCharacters(rows pgx.Rows, err error) ([]Character, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Character
	for rows.Next() {
		var ch Character
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.RoleID, &ch.ClassID, &ch.Ilvl, &ch.Rio); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func getCharacters(ctx context.Context, db DBTX) ([]Character, error) {
	q := psql.Select(characterCols...).From("characters").OrderBy("id ASC")
	return collectCharacters(qQuery(ctx, db, q))
}

func getCharacterByID(ctx context.Context, db DBTX, id int) (*Character, error) {
	q := psql.Select(characterCols...).From("characters").Where("id = ?", id)
	return scanCharacter(qRow(ctx, db, q))
}

func getCharactersByIDs(ctx context.Context, db DBTX, ids []int) ([]Character, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := psql.Select(characterCols...).From("characters").
		Where(sq.Eq{"id": ids}).OrderBy("id ASC")
	return collectCharacters(qQuery(ctx, db, q))
}

func getCharactersByPlayerID(ctx context.Context, db DBTX, playerID int) ([]Character, error) {
	q := psql.Select("c.id", "c.name", "c.role_id", "c.class_id", "c.ilvl", "c.rio").
		From("characters c").
		Join("belong_to b ON b.character_id = c.id").
		Where("b.player_id = ?", playerID).
		OrderBy("c.id ASC")
	return collectCharacters(qQuery(ctx, db, q))
}

// createCharacter inserts the character and its ownership row as one unit.
func createCharacter(ctx context.Context, db DB, ch Character, playerID int) (*Character, error) {
	var created *Character
	err := withTx(ctx, db, func(tx pgx.Tx) error {
		q := psql.Insert("characters").
			Columns("name", "role_id", "class_id", "ilvl", "rio").
			Values(ch.Name, ch.RoleID, ch.ClassID, ch.Ilvl, ch.Rio).
			Suffix("RETURNING id, name, role_id, class_id, ilvl, rio")
		var err error
		created, err = scanCharacter(qRow(ctx, tx, q))
		if err != nil {
			return err
		}

		_, err = qExec(ctx, tx, psql.Insert("belong_to").
			Columns("player_id", "character_id").
			Values(playerID, created.ID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func updateCharacter(ctx context.Context, db DBTX, ch Character) (*Character, error) {
	q := psql.Update("characters").
		Set("name", ch.Name).
		Set("role_id", ch.RoleID).
		Set("class_id", ch.ClassID).
		Set("ilvl", ch.Ilvl).
		Set("rio", ch.Rio).
		Where("id = ?", ch.ID).
		Suffix("RETURNING id, name, role_id, class_id, ilvl, rio")
	return scanCharacter(qRow(ctx, db, q))
}

// deleteCharacter removes the ownership row and the character as one unit.
func deleteCharacter(ctx context.Context, db DB, id int) error {
	return withTx(ctx, db, func(tx pgx.Tx) error {
		if _, err := qExec(ctx, tx, psql.Delete("belong_to").Where("character_id = ?", id)); err != nil {
			return err
		}
		_, err := qExec(ctx, tx, psql.Delete("characters").Where("id = ?", id))
		return err
	})
}

/* ===================== HANDLERS ===================== */

func parseID(c *gin.Context, param string) (int, *apiError) {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil {
		return 0, BadRequest("Invalid id")
	}
	return id, nil
}

func ListCharacters(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		chars, err := getCharacters(c.Request.Context(), db)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(200, chars)
	}
}

func GetCharacter(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		ch, err := getCharacterByID(c.Request.Context(), db, id)
		if err != nil {
			Fail(c, err)
			return
		}
		if ch == nil {
			Fail(c, NotFound("Character not found"))
			return
		}
		c.JSON(200, ch)
	}
}

func CreateCharacter(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name    string `json:"name"`
			RoleID  *int   `json:"role_id"`
			ClassID *int   `json:"class_id"`
			Ilvl    *int   `json:"ilvl"`
			Rio     *int   `json:"rio"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, BadRequest("Invalid JSON body"))
			return
		}
		if req.Name == "" || req.RoleID == nil || req.ClassID == nil || req.Ilvl == nil || req.Rio == nil {
			Fail(c, BadRequest("Name, role_id, class_id, ilvl and rio are required"))
			return
		}

		playerID := uid(c)
		ch, err := createCharacter(c.Request.Context(), db, Character{
			Name:    req.Name,
			RoleID:  *req.RoleID,
			ClassID: *req.ClassID,
			Ilvl:    *req.Ilvl,
			Rio:     *req.Rio,
		}, playerID)
		if err != nil {
			Fail(c, err)
			return
		}

		logAction(db, &playerID, "create_character", "character_id="+strconv.Itoa(ch.ID))
		c.JSON(200, ch)
	}
}

// ownedCharacter finds id among the characters LoadCharacters attached.
func ownedCharacter(c *gin.Context, id int) *Character {
	for _, ch := range requestCharacters(c) {
		if ch.ID == id {
			return &ch
		}
	}
	return nil
}

func UpdateCharacter(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		ch := ownedCharacter(c, id)
		if ch == nil {
			Fail(c, NotFound("Character not found"))
			return
		}

		var req struct {
			Name    *string `json:"name"`
			RoleID  *int    `json:"role_id"`
			ClassID *int    `json:"class_id"`
			Ilvl    *int    `json:"ilvl"`
			Rio     *int    `json:"rio"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, BadRequest("Invalid JSON body"))
			return
		}

		merged := *ch
		if req.Name != nil {
			merged.Name = *req.Name
		}
		if req.RoleID != nil {
			merged.RoleID = *req.RoleID
		}
		if req.ClassID != nil {
			merged.ClassID = *req.ClassID
		}
		if req.Ilvl != nil {
			merged.Ilvl = *req.Ilvl
		}
		if req.Rio != nil {
			merged.Rio = *req.Rio
		}

		updated, err := updateCharacter(c.Request.Context(), db, merged)
		if err != nil {
			Fail(c, err)
			return
		}

		actor := uid(c)
		logAction(db, &actor, "update_character", "character_id="+strconv.Itoa(id))
		c.JSON(200, updated)
	}
}

func DeleteCharacter(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, apiErr := parseID(c, "id")
		if apiErr != nil {
			Fail(c, apiErr)
			return
		}
		ch := ownedCharacter(c, id)
		if ch == nil {
			Fail(c, NotFound("Character not found"))
			return
		}

		if err := deleteCharacter(c.Request.Context(), db, id); err != nil {
			Fail(c, err)
			return
		}

		actor := uid(c)
		logAction(db, &actor, "delete_character", "character_id="+strconv.Itoa(id))
		c.JSON(200, ch)
	}
}

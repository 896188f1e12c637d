package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// fakeTeams plays the LoadTeams role with a fixed captained set.
func fakeTeams(teams ...Team) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("uid", 1)
		c.Set("role", "player")
		c.Set("teams", teams)
	}
}

func deleteReq(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// activeTeamDB seeds the lookups every team mutation runs first: the team
// itself, its registration and a tournament that is still running.
func activeTeamDB(extra ...fakeRow) *fakeDB {
	rows := []fakeRow{
		teamRow(1, 7, 1),
		registrationRow(1, 3),
		tournamentRow(3, time.Now().Add(24*time.Hour)),
	}
	return &fakeDB{rows: append(rows, extra...)}
}

func TestRemoveMemberRejectsCaptain(t *testing.T) {
	db := activeTeamDB()
	r := newTestRouter()
	r.PUT("/teams/:id/remove-member", fakeIdentity, RemoveMember(db))

	w := putJSON(r, "/teams/1/remove-member", `{"character_id":7}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Cannot remove the team captain", decodeError(t, w).Message)
	assert.Zero(t, db.execCount("compose"))
}

func TestRemoveMemberDeletesRosterRow(t *testing.T) {
	db := activeTeamDB()
	r := newTestRouter()
	r.PUT("/teams/:id/remove-member", fakeIdentity, RemoveMember(db))

	w := putJSON(r, "/teams/1/remove-member", `{"character_id":8}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, db.execCount("DELETE FROM compose"))
}

func TestAddMembersSkipsExistingRoster(t *testing.T) {
	db := activeTeamDB()
	db.rowSets = []*fakeRows{{rows: [][]any{{7}, {8}}}}
	r := newTestRouter()
	r.PUT("/teams/:id/add-members", fakeIdentity, AddMembers(db))

	w := putJSON(r, "/teams/1/add-members", `{"members":[{"id":7},{"id":8},{"id":0}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, db.execCount("compose"))
}

func TestAddMembersInsertsOnlyNewCharacters(t *testing.T) {
	db := activeTeamDB(characterRow(9))
	db.rowSets = []*fakeRows{{rows: [][]any{{7}}}}
	r := newTestRouter()
	r.PUT("/teams/:id/add-members", fakeIdentity, AddMembers(db))

	w := putJSON(r, "/teams/1/add-members", `{"members":[{"id":7},{"id":9}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, db.execCount("INSERT INTO compose"))
}

func TestTeamMutationsRejectEndedTournament(t *testing.T) {
	endedDB := func() *fakeDB {
		return &fakeDB{rows: []fakeRow{
			registrationRow(1, 3),
			tournamentRow(3, time.Now().Add(-time.Hour)),
		}}
	}
	captained := Team{ID: 1, CaptainID: 7, RegisteredID: 1}

	t.Run("update", func(t *testing.T) {
		db := endedDB()
		r := newTestRouter()
		r.PUT("/teams/:id", fakeTeams(captained), UpdateTeam(db))

		w := putJSON(r, "/teams/1", `{"name":"Alpha"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Tournament has ended", decodeError(t, w).Message)
	})

	t.Run("delete", func(t *testing.T) {
		db := endedDB()
		r := newTestRouter()
		r.DELETE("/teams/:id", fakeTeams(captained), DeleteTeam(db))

		w := deleteReq(r, "/teams/1")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "Tournament has ended", decodeError(t, w).Message)
		assert.Zero(t, db.execCount("parties"))
	})
}

func TestRequireActiveTournamentPropagatesLookupError(t *testing.T) {
	boom := errors.New("connection reset")
	db := &fakeDB{rows: []fakeRow{{err: boom}}}

	err := requireActiveTournament(context.Background(), db, 1)

	assert.ErrorIs(t, err, boom)
	var tagged *apiError
	assert.False(t, errors.As(err, &tagged))
}

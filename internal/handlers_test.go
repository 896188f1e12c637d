package internal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func putJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// fakeIdentity stands in for Auth in tests that never reach the database.
func fakeIdentity(c *gin.Context) {
	c.Set("uid", 1)
	c.Set("role", "player")
}

func TestCreateCharacterValidation(t *testing.T) {
	r := newTestRouter()
	r.POST("/characters", fakeIdentity, CreateCharacter(nil))

	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"empty body", `{}`},
		{"missing rio", `{"name":"Thrall","role_id":1,"class_id":2,"ilvl":450}`},
		{"missing name", `{"role_id":1,"class_id":2,"ilvl":450,"rio":2500}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(r, "/characters", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetCharacterRejectsBadID(t *testing.T) {
	r := newTestRouter()
	r.GET("/characters/:id", GetCharacter(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/characters/thrall", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCharacterNotOwned(t *testing.T) {
	r := newTestRouter()
	// no characters attached to the request, so any id misses
	r.PUT("/characters/:id", fakeIdentity, UpdateCharacter(nil))

	w := putJSON(r, "/characters/999999", `{"name":"Thrall"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, 404, body.Status)
	assert.Equal(t, "Character not found", body.Message)
}

func TestCreateTeamValidation(t *testing.T) {
	r := newTestRouter()
	r.POST("/teams", fakeIdentity, CreateTeam(nil))

	t.Run("missing tournament", func(t *testing.T) {
		w := postJSON(r, "/teams", `{"character":{"id":1}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Tournament object is required", decodeError(t, w).Message)
	})

	t.Run("missing character", func(t *testing.T) {
		w := postJSON(r, "/teams", `{"tournament":{"id":1}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Character object is required", decodeError(t, w).Message)
	})
}

func TestUpdateTeamNotCaptained(t *testing.T) {
	r := newTestRouter()
	// no teams attached to the request, so any id misses
	r.PUT("/teams/:id", fakeIdentity, UpdateTeam(nil))

	w := putJSON(r, "/teams/42", `{"name":"Alpha"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Team not found", decodeError(t, w).Message)
}

func TestAddMembersRequiresArray(t *testing.T) {
	r := newTestRouter()
	r.PUT("/teams/:id/add-members", fakeIdentity, AddMembers(nil))

	for _, body := range []string{`{`, `{}`, `{"members":null}`} {
		w := putJSON(r, "/teams/1/add-members", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Members array is required", decodeError(t, w).Message)
	}
}

func TestRemoveMemberRequiresCharacterID(t *testing.T) {
	r := newTestRouter()
	r.PUT("/teams/:id/remove-member", fakeIdentity, RemoveMember(nil))

	w := putJSON(r, "/teams/1/remove-member", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "character_id is required", decodeError(t, w).Message)
}

func TestDonjonsByLevelRejectsNonNumeric(t *testing.T) {
	r := newTestRouter()
	r.GET("/donjons/level/:level", DonjonsByLevel(nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/donjons/level/mythic", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Level must be a number", decodeError(t, w).Message)
}

func TestCompleteDonjonValidation(t *testing.T) {
	r := newTestRouter()
	r.POST("/donjons/:id/complete", fakeIdentity, CompleteDonjon(nil))

	cases := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"team without timer", `{"team":{"id":1}}`},
		{"flat teamId without timer", `{"teamId":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(r, "/donjons/5/complete", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Team and timer are required", decodeError(t, w).Message)
		})
	}
}

func TestCreateTournamentValidation(t *testing.T) {
	r := newTestRouter()
	r.POST("/tournament", fakeIdentity, CreateTournament(nil))

	cases := []struct {
		name string
		body string
	}{
		{"missing fields", `{"name":"Cup"}`},
		{"end before start", `{"name":"Cup","start_date":"2030-01-02T00:00:00Z","end_date":"2030-01-01T00:00:00Z","cost_to_registry":10,"description":"x"}`},
		{"end in the past", `{"name":"Cup","start_date":"2020-01-01T00:00:00Z","end_date":"2020-01-02T00:00:00Z","cost_to_registry":10,"description":"x"}`},
		{"negative cost", `{"name":"Cup","start_date":"2030-01-01T00:00:00Z","end_date":"2030-01-02T00:00:00Z","cost_to_registry":-1,"description":"x"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(r, "/tournament", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

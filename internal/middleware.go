package internal

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const cookieName = "keystone_token"

type claims struct {
	PlayerID int    `json:"pid"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type sessionChecker interface {
	Exists(ctx context.Context, token string) (bool, error)
}

// requestToken pulls the token from the cookie or an Authorization: Bearer header.
func requestToken(c *gin.Context) string {
	if tok, err := c.Cookie(cookieName); err == nil && tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// Auth verifies the signed token and checks that its session has not been
// revoked. The verified identity is all downstream handlers ever see.
func Auth(secret string, sessions sessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := requestToken(c)
		if tokenStr == "" {
			Fail(c, Unauthorized("Unauthorized"))
			return
		}

		tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(token *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			Fail(c, Unauthorized("Unauthorized"))
			return
		}

		cl, ok := tok.Claims.(*claims)
		if !ok {
			Fail(c, Unauthorized("Unauthorized"))
			return
		}

		if sessions != nil {
			live, err := sessions.Exists(c.Request.Context(), tokenStr)
			if err != nil || !live {
				Fail(c, Unauthorized("Unauthorized"))
				return
			}
		}

		c.Set("uid", cl.PlayerID)
		c.Set("role", cl.Role)
		c.Set("token", tokenStr)
		c.Next()
	}
}

func uid(c *gin.Context) int {
	v, _ := c.Get("uid")
	return v.(int)
}

// LoadCharacters attaches the caller's characters to the request.
func LoadCharacters(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		chars, err := getCharactersByPlayerID(c.Request.Context(), db, uid(c))
		if err != nil {
			Fail(c, err)
			return
		}
		if len(chars) == 0 {
			Fail(c, BadRequest("No characters found"))
			return
		}
		c.Set("characters", chars)
		c.Next()
	}
}

func requestCharacters(c *gin.Context) []Character {
	v, _ := c.Get("characters")
	chars, _ := v.([]Character)
	return chars
}

// LoadTeams attaches the teams captained by any of the caller's characters.
// Requires LoadCharacters earlier in the chain.
func LoadTeams(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := make([]int, 0, len(requestCharacters(c)))
		for _, ch := range requestCharacters(c) {
			ids = append(ids, ch.ID)
		}
		teams, err := getTeamsByCharacterIDs(c.Request.Context(), db, ids)
		if err != nil {
			Fail(c, err)
			return
		}
		if len(teams) == 0 {
			Fail(c, BadRequest("No teams found"))
			return
		}
		c.Set("teams", teams)
		c.Next()
	}
}

func requestTeams(c *gin.Context) []Team {
	v, _ := c.Get("teams")
	teams, _ := v.([]Team)
	return teams
}

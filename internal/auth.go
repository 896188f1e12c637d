package internal

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

func Register(db DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, BadRequest("Invalid JSON body"))
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" {
			Fail(c, BadRequest("Username, email and password are required"))
			return
		}
		if len(req.Password) < 6 {
			Fail(c, BadRequest("Password too short"))
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
		if err != nil {
			Fail(c, err)
			return
		}

		player, err := createPlayer(c.Request.Context(), db, req.Username, req.Email, string(hash))
		if err != nil {
			Fail(c, Conflict("Username or email already exists"))
			return
		}

		logAction(db, &player.ID, "register", "player registered")
		c.JSON(201, player)
	}
}

func Login(db DB, sessions *Sessions, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			Fail(c, BadRequest("Invalid JSON body"))
			return
		}

		player, err := getPlayerByEmail(c.Request.Context(), db, req.Email)
		if err != nil {
			Fail(c, err)
			return
		}
		if player == nil {
			Fail(c, Unauthorized("Invalid credentials"))
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(player.PassHash), []byte(req.Password)) != nil {
			Fail(c, Unauthorized("Invalid credentials"))
			return
		}

		tokenStr, err := signToken(player, secret)
		if err != nil {
			Fail(c, err)
			return
		}

		err = sessions.Set(c.Request.Context(), tokenStr, &SessionData{
			PlayerID:  player.ID,
			Username:  player.Username,
			CreatedAt: time.Now(),
		}, tokenTTL)
		if err != nil {
			Fail(c, err)
			return
		}

		secure := os.Getenv("COOKIE_SECURE") == "1"
		c.SetCookie(cookieName, tokenStr, int(tokenTTL.Seconds()), "/", "", secure, true)

		logAction(db, &player.ID, "login", "success")
		c.JSON(200, gin.H{"token": tokenStr, "user": player})
	}
}

func signToken(player *Player, secret string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		PlayerID: player.ID,
		Role:     player.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "keystone-platform",
		},
	})
	return tok.SignedString([]byte(secret))
}

func Logout(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := c.GetString("token"); tok != "" {
			_ = sessions.Delete(c.Request.Context(), tok)
		}
		c.SetCookie(cookieName, "", -1, "/", "", false, true)
		c.JSON(200, gin.H{"ok": true})
	}
}

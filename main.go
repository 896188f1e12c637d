package main

import (
	"log"
	"log/slog"
	"os"

	"keystone-platform/internal"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	db := internal.MustDB(dbURL)
	defer db.Close()

	if err := internal.InitSchema(db); err != nil {
		log.Fatalf("schema init: %v", err)
	}

	sessions := internal.NewSessions(redisAddr, os.Getenv("REDIS_PASSWORD"))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), internal.RequestLogger(), internal.ErrorHandler())
	r.NoRoute(func(c *gin.Context) {
		internal.Fail(c, internal.NotFound("Page not found"))
	})

	auth := internal.Auth(secret, sessions)

	r.POST("/auth/register", internal.Register(db))
	r.POST("/auth/login", internal.Login(db, sessions, secret))
	r.POST("/auth/logout", auth, internal.Logout(sessions))

	characters := r.Group("/characters", auth)
	{
		characters.GET("", internal.ListCharacters(db))
		characters.GET("/:id", internal.GetCharacter(db))
		characters.POST("", internal.CreateCharacter(db))
		characters.PUT("/:id", internal.LoadCharacters(db), internal.UpdateCharacter(db))
		characters.DELETE("/:id", internal.LoadCharacters(db), internal.DeleteCharacter(db))
	}

	teams := r.Group("/teams", auth)
	{
		teams.GET("", internal.ListTeams(db))
		teams.GET("/:id", internal.GetTeam(db))
		teams.GET("/:id/characters", internal.TeamCharacters(db))
		teams.POST("", internal.CreateTeam(db))
		teams.PUT("/:id", internal.LoadCharacters(db), internal.LoadTeams(db), internal.UpdateTeam(db))
		teams.DELETE("/:id", internal.LoadCharacters(db), internal.LoadTeams(db), internal.DeleteTeam(db))
		teams.PUT("/:id/add-members", internal.AddMembers(db))
		teams.PUT("/:id/remove-member", internal.RemoveMember(db))
	}

	tournament := r.Group("/tournament")
	{
		tournament.GET("", internal.ListTournaments(db))
		tournament.GET("/:id", internal.GetTournament(db))
		tournament.GET("/:id/teams", internal.TournamentTeams(db))
		tournament.POST("", auth, internal.CreateTournament(db))
		tournament.PUT("/:id", auth, internal.UpdateTournament(db))
		tournament.DELETE("/:id", auth, internal.DeleteTournament(db))
	}

	donjons := r.Group("/donjons")
	{
		donjons.GET("", internal.ListDonjons(db))
		donjons.GET("/:id", internal.GetDonjon(db))
		donjons.GET("/level/:level", internal.DonjonsByLevel(db))
		donjons.GET("/team/:teamId", internal.TeamDonjons(db))
		donjons.POST("/:id/complete", auth, internal.CompleteDonjon(db))
	}

	log.Printf("Listening on :%s", port)
	_ = r.Run(":" + port)
}

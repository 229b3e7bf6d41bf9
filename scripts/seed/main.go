// Seed loads a demo league into the table store so the API can be exercised
// locally: one league with two divisions, four teams with coaches, a league
// admin and a pair of lighted fields.
//
// Usage:
//
//	go run ./scripts/seed -league lg-demo
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/fieldtime/scheduler-api/internal/models"
	"github.com/fieldtime/scheduler-api/internal/repository"
	"github.com/fieldtime/scheduler-api/pkg/config"
	"github.com/fieldtime/scheduler-api/pkg/database"
	"github.com/fieldtime/scheduler-api/pkg/tablestore"
)

func main() {
	leagueID := flag.String("league", "lg-demo", "league id to seed")
	seasonStart := flag.String("season-start", "2026-04-01", "season start date (YYYY-MM-DD)")
	seasonEnd := flag.String("season-end", "2026-06-30", "season end date (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close()

	store := tablestore.NewPostgresStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seed(ctx, store, *leagueID, *seasonStart, *seasonEnd); err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("seeded league %s\n", *leagueID)
}

func seed(ctx context.Context, store tablestore.Store, leagueID, seasonStart, seasonEnd string) error {
	leagues := repository.NewLeagueRepository(store)
	users := repository.NewUserRepository(store)
	memberships := repository.NewMembershipRepository(store)
	teams := repository.NewTeamRepository(store)
	fields := repository.NewFieldRepository(store)

	if _, err := leagues.Put(ctx, &models.League{
		LeagueID: leagueID,
		Name:     "Riverside Youth League",
		Sport:    "soccer",
		Timezone: "America/New_York",
		Season: models.SeasonConfig{
			SeasonStart:       seasonStart,
			SeasonEnd:         seasonEnd,
			GameLengthMinutes: 60,
			Divisions:         []string{"U10", "U12"},
		},
	}); err != nil {
		return fmt.Errorf("league: %w", err)
	}

	fieldSeeds := []models.Field{
		{FieldKey: "riverside/1", DisplayName: "Riverside Park 1", Lighted: true},
		{FieldKey: "riverside/2", DisplayName: "Riverside Park 2"},
	}
	for _, field := range fieldSeeds {
		field.LeagueID = leagueID
		if _, err := fields.Put(ctx, &field); err != nil {
			return fmt.Errorf("field %s: %w", field.FieldKey, err)
		}
	}

	if _, err := users.Put(ctx, &models.User{UserID: "u-admin", Email: "admin@example.com"}); err != nil {
		return fmt.Errorf("admin user: %w", err)
	}
	if _, err := memberships.Put(ctx, &models.Membership{
		UserID: "u-admin", LeagueID: leagueID, Role: models.RoleLeagueAdmin,
	}); err != nil {
		return fmt.Errorf("admin membership: %w", err)
	}

	teamSeeds := []struct {
		teamID   string
		division string
		name     string
	}{
		{"team-hawks", "U10", "Hawks"},
		{"team-otters", "U10", "Otters"},
		{"team-bisons", "U12", "Bisons"},
		{"team-lynx", "U12", "Lynx"},
	}
	for _, seed := range teamSeeds {
		coachID := "u-coach-" + seed.teamID
		if _, err := teams.Put(ctx, &models.Team{
			TeamID:      seed.teamID,
			LeagueID:    leagueID,
			Division:    seed.division,
			Name:        seed.name,
			CoachUserID: coachID,
		}); err != nil {
			return fmt.Errorf("team %s: %w", seed.teamID, err)
		}
		if _, err := users.Put(ctx, &models.User{
			UserID: coachID, Email: coachID + "@example.com",
		}); err != nil {
			return fmt.Errorf("coach %s: %w", coachID, err)
		}
		if _, err := memberships.Put(ctx, &models.Membership{
			UserID:   coachID,
			LeagueID: leagueID,
			Role:     models.RoleCoach,
			Division: seed.division,
			TeamID:   seed.teamID,
		}); err != nil {
			return fmt.Errorf("coach membership %s: %w", coachID, err)
		}
	}

	return nil
}

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-sync/internal/adapter/repository"
	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-sync/pkg/config"
	pkgjwt "github.com/johnquangdev/meeting-sync/pkg/jwt"
)

const demoDomain = "%@demo.local"

func main() {
	log.Println("🚀 Seeding demo team...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	ctx := context.Background()

	log.Println("🗑️  Cleaning up existing demo data...")
	db.Where("created_by_user_id IN (SELECT id FROM users WHERE email LIKE ?)", demoDomain).Delete(&entities.Team{})
	db.Where("email LIKE ?", demoDomain).Delete(&entities.User{})

	users := repository.NewUserRepository(db)
	teams := repository.NewTeamRepository(db)

	lead := &entities.User{ID: uuid.New(), Email: "lead@demo.local", FullName: "Demo Lead", IsActive: true}
	member := &entities.User{ID: uuid.New(), Email: "member@demo.local", FullName: "Demo Member", IsActive: true}
	for _, u := range []*entities.User{lead, member} {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("❌ Failed to create user %s: %v", u.Email, err)
		}
	}

	team := &entities.Team{
		ID:               uuid.New(),
		Name:             "Demo Team",
		CreatedByUserID:  lead.ID,
		IsActive:         true,
		RecipientUserIDs: []string{lead.ID.String(), member.ID.String()},
	}
	if err := teams.CreateTeam(ctx, team); err != nil {
		log.Fatalf("❌ Failed to create team: %v", err)
	}
	memberships := []*entities.TeamMembership{
		{ID: uuid.New(), TeamID: team.ID, UserID: lead.ID, Role: entities.TeamRoleLead, Status: entities.MembershipAccepted, IsActive: true},
		{ID: uuid.New(), TeamID: team.ID, UserID: member.ID, Role: entities.TeamRoleMember, Status: entities.MembershipAccepted, IsActive: true},
	}
	for _, m := range memberships {
		if err := teams.CreateMembership(ctx, m); err != nil {
			log.Fatalf("❌ Failed to create membership: %v", err)
		}
	}

	jwtManager := pkgjwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.Issuer)
	token, err := jwtManager.GenerateAccessToken(lead.ID, lead.Email, pkgjwt.RoleAdmin)
	if err != nil {
		log.Fatalf("❌ Failed to generate admin token: %v", err)
	}

	fmt.Printf("═══════════════════════════════════════════════════════\n")
	fmt.Printf("🟢 Team:   %s (%s)\n", team.Name, team.ID)
	fmt.Printf("👤 Lead:   %s (%s)\n", lead.Email, lead.ID)
	fmt.Printf("👤 Member: %s (%s)\n", member.Email, member.ID)
	fmt.Printf("\n🔐 Admin Access Token (expiry: %v):\n%s\n", cfg.JWT.AccessExpiry, token)
	fmt.Printf("\n🪝 Scoped webhook: POST /api/v1/transcriptions/webhooks/fireflies/%s\n", lead.ID)
	fmt.Printf("═══════════════════════════════════════════════════════\n")
}

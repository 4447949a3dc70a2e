// Command seed_admin bootstraps the first superuser account so the API has
// someone able to log in and create everything else.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	"github.com/MarivaldoDev/sistema-escolar/internal/repository"
	"github.com/MarivaldoDev/sistema-escolar/internal/service"
	"github.com/MarivaldoDev/sistema-escolar/pkg/config"
	"github.com/MarivaldoDev/sistema-escolar/pkg/database"
)

func main() {
	var (
		email     string
		password  string
		firstName string
		lastName  string
	)

	flag.StringVar(&email, "email", "", "Admin email (required)")
	flag.StringVar(&password, "password", "", "Admin password (required, min 8 chars)")
	flag.StringVar(&firstName, "first-name", "Admin", "First name")
	flag.StringVar(&lastName, "last-name", "Root", "Last name")
	flag.Parse()

	if email == "" || len(password) < 8 {
		log.Fatal("usage: seed_admin -email <email> -password <password, min 8 chars>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	accounts := repository.NewAccountRepository(db)
	registration := service.NewRegistrationService(accounts, nil)

	number, err := registration.Assign(ctx)
	if err != nil {
		log.Fatalf("failed to assign registration number: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	account := &models.Account{
		RegistrationNumber: number,
		FirstName:          firstName,
		LastName:           lastName,
		Email:              email,
		Role:               models.RoleAdmin,
		Superuser:          true,
		PasswordHash:       string(hash),
		Active:             true,
	}

	if err := accounts.Create(ctx, account); err != nil {
		log.Fatalf("failed to create admin account: %v", err)
	}

	fmt.Printf("admin created\n  id: %s\n  registration number: %s\n", account.ID, account.RegistrationNumber)
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/codepractice/codepractice-backend/internal/config"
	"github.com/codepractice/codepractice-backend/internal/database"
	"github.com/codepractice/codepractice-backend/internal/logger"
	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/repository"
	"github.com/codepractice/codepractice-backend/internal/service"
	"github.com/google/uuid"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	// Hashing only; no session is issued here so Redis is not needed.
	authService := service.NewAuthService(cfg, nil, userRepo, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	// Email
	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		fmt.Println("Error: a valid email is required")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 || len(password) > 72 {
		fmt.Println("Error: Password must be 6 to 72 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hash, err := authService.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	u := &model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			fmt.Printf("Error: %s is already registered\n", email)
			return
		}
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! User %s created with ID: %s\n", u.Email, u.ID)
	if cfg.IsAdmin(u.Email) {
		fmt.Println("This account is listed in ADMIN_EMAILS and can manage problems.")
	} else {
		fmt.Println("Add this email to ADMIN_EMAILS to grant problem management access.")
	}
}

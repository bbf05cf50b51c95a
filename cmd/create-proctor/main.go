package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/classpoint/cbt-backend/internal/config"
	"github.com/classpoint/cbt-backend/internal/database"
	"github.com/classpoint/cbt-backend/internal/logger"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/repository"
	"github.com/classpoint/cbt-backend/internal/service"
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
	proctorRepo := repository.NewProctorRepository(pool)
	authService := service.NewAuthService(cfg)
	proctorService := service.NewProctorService(proctorRepo, authService)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Proctor Account ===")

	// Name
	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	// Email
	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
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
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// Role
	fmt.Print("Enter Role [PROCTOR/EXAM_OFFICER] (default PROCTOR): ")
	roleStr, _ := reader.ReadString('\n')
	roleStr = strings.ToUpper(strings.TrimSpace(roleStr))
	role := model.RoleProctor
	switch roleStr {
	case "", string(model.RoleProctor):
	case string(model.RoleExamOfficer):
		role = model.RoleExamOfficer
	default:
		fmt.Println("Error: Role must be PROCTOR or EXAM_OFFICER")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	proctor := &model.Proctor{
		Email: email,
		Name:  name,
		Role:  role,
	}

	if err := proctorService.Create(ctx, proctor, password); err != nil {
		log.Fatal().Err(err).Msg("Failed to create proctor")
	}

	fmt.Printf("\nSuccess! Proctor '%s' (%s) created with ID: %d\n", proctor.Name, proctor.Email, proctor.ID)
}

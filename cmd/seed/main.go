package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/container"
	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

var demoTasks = []application.TaskDraft{
	{Description: "Read the API guide", Completed: true},
	{Description: "Upload a profile avatar"},
	{Description: "Create your first real task"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// seeding should never mail the demo address
	cfg.MailSendEnabled = false
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialise dependencies: %v", err)
	}
	defer c.Close()

	in := application.RegisterInput{Name: "Demo User", Email: "demo@example.com", Password: "demo-secret-123", Age: 30}
	u, err := c.Users.Register(ctx, in)
	switch {
	case apperr.KindOf(err) == apperr.Conflict:
		u, err = c.Users.FindByCredentials(ctx, in.Email, in.Password)
		if err != nil {
			log.Fatalf("demo user exists with a different password: %v", err)
		}
	case err != nil:
		log.Fatalf("failed to seed user: %v", err)
	}

	n, err := c.TaskRepo.CountByOwner(ctx, u.ID)
	if err != nil {
		log.Fatalf("failed to count tasks: %v", err)
	}
	if n == 0 {
		for _, d := range demoTasks {
			if _, err := c.Tasks.Create(ctx, u.ID, d); err != nil {
				log.Fatalf("failed to seed task: %v", err)
			}
		}
		n = len(demoTasks)
	}

	token, err := c.Sessions.IssueToken(ctx, u)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s tasks=%d\n", u.ID, in.Email, in.Password, n)
	fmt.Printf("bearer token: %s\n", token)
}

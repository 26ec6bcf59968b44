package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robalyx/tribunal/internal/auth"
	"github.com/robalyx/tribunal/internal/setup/config"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "token",
		Usage: "Issue a staff token for the appeals API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user-id",
				Usage:    "Staff user ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Display name",
			},
			&cli.StringFlag{
				Name:  "email",
				Usage: "Staff email",
			},
			&cli.IntFlag{
				Name:  "authority",
				Usage: "Authority level",
				Value: 1,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime (defaults to the configured token_ttl)",
			},
		},
		Action: issue,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func issue(_ context.Context, c *cli.Command) error {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	service, err := auth.NewService(&cfg.API.Auth)
	if err != nil {
		return err
	}

	ttl := c.Duration("ttl")
	token, err := service.Issue(&auth.Staff{
		UserID:         c.String("user-id"),
		DisplayName:    c.String("name"),
		Email:          c.String("email"),
		AuthorityLevel: int(c.Int("authority")),
	}, ttl)
	if err != nil {
		return err
	}

	if ttl <= 0 {
		ttl = time.Duration(cfg.API.Auth.TokenTTL) * time.Minute
	}
	fmt.Fprintf(os.Stderr, "Token expires at %s\n", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	fmt.Println(token)

	return nil
}

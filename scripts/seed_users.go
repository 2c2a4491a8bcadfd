package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"hotdesk/internal/database"
	"hotdesk/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Разовая загрузка справочника сотрудников (согласующие и заявители) в базу.
type UsersConfig struct {
	Users []UserEntry `yaml:"users"`
}

type UserEntry struct {
	ID    int64  `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		usersPath = flag.String("users", "configs/users.yaml", "path to users.yaml")
		dbPath    = flag.String("db", "./data/hotdesk.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*usersPath)
	if err != nil {
		return fmt.Errorf("read users: %w", err)
	}
	var cfg UsersConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse users: %w", err)
	}
	if len(cfg.Users) == 0 {
		return fmt.Errorf("no users in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	saved := 0
	for _, u := range cfg.Users {
		if u.ID == 0 || u.Name == "" {
			logger.Warn().Int64("id", u.ID).Str("name", u.Name).Msg("skipping incomplete user entry")
			continue
		}
		user := models.User{ID: u.ID, Name: u.Name, Email: u.Email}
		if err = db.CreateOrUpdateUser(ctx, &user); err != nil {
			return fmt.Errorf("save %s: %w", u.Name, err)
		}
		saved++
	}

	logger.Info().Int("saved", saved).Msg("User directory seeded")
	return nil
}

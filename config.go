package main

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// BotConfig holds everything read from the environment at startup.
type BotConfig struct {
	Token     string
	OwnerIDs  []string
	InviteURL string

	// Optional MySQL settings. If DBUsername is empty the bot runs with an
	// in-memory store and nothing survives a restart.
	DBUsername string
	DBPassword string
	DBHost     string
	DBName     string

	UsageTable     string
	HistoryTable   string
	BlacklistTable string
	PrefixTable    string
}

/**
Reads the bot's configuration from a .env file (if present) and the process
environment. Only BOT_TOKEN is required.
*/
func loadConfig() (*BotConfig, error) {
	// a missing .env file is fine; the variables may come from the real environment
	_ = godotenv.Load()

	config := &BotConfig{
		Token:          os.Getenv("BOT_TOKEN"),
		InviteURL:      os.Getenv("INVITE_URL"),
		DBUsername:     os.Getenv("DB_USERNAME"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBHost:         os.Getenv("DB_HOST"),
		DBName:         os.Getenv("DB_NAME"),
		UsageTable:     os.Getenv("USAGE_TABLE"),
		HistoryTable:   os.Getenv("HISTORY_TABLE"),
		BlacklistTable: os.Getenv("BLACKLIST_TABLE"),
		PrefixTable:    os.Getenv("PREFIX_TABLE"),
	}

	if config.Token == "" {
		return nil, errors.New("BOT_TOKEN is not set")
	}

	if config.InviteURL == "" {
		config.InviteURL = "https://github.com/cazwacki/EmojiManagerBot"
	}

	if rawOwners := os.Getenv("OWNER_IDS"); rawOwners != "" {
		for _, id := range strings.Split(rawOwners, ",") {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				config.OwnerIDs = append(config.OwnerIDs, trimmed)
			}
		}
	}

	// default table names, overridable the same way the host names are
	if config.UsageTable == "" {
		config.UsageTable = "command_usage"
	}
	if config.HistoryTable == "" {
		config.HistoryTable = "usage_history"
	}
	if config.BlacklistTable == "" {
		config.BlacklistTable = "blacklist"
	}
	if config.PrefixTable == "" {
		config.PrefixTable = "prefixes"
	}

	return config, nil
}

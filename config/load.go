package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

func Default() Configs {
	return Configs{
		Env: "local",
		Database: DatabaseConfigs{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     "3306",
			Database: "matchpoll",
			User:     "matchpoll",
			LogLevel: "error",
		},
		ApiServer: ServerConfigs{
			Port:         "8080",
			AllowOrigins: []string{"*"},
		},
		Auth: AuthConfigs{
			AccessToken: TokenConfigs{
				Name:       "access_token",
				Secret:     "change-me",
				Expiration: 24 * time.Hour,
			},
		},
		Session: SessionConfigs{
			Secret: "change-me",
			Name:   "matchpoll_session",
		},
		Voting: VotingConfigs{
			AllowChange:    true,
			ClosedStatuses: []string{"finished"},
			StorageTimeout: 3 * time.Second,
			MaxRaceRetries: 3,
			TallyCacheTTL:  5 * time.Minute,
		},
		Identity: IdentityConfigs{
			ClientTokenHeader: "X-Voter-Token",
			ClientTokenCookie: "voter_token",
		},
		Log: LogConfigs{Level: "info"},
	}
}

// Load builds the configurations from the defaults, the optional TOML file at path and the
// environment, in that order of precedence.
func Load(path string) (Configs, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Configs{}, err
		}
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return Configs{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Configs) {
	setString(&cfg.Env, "ENV")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.Database, "DB_NAME")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")

	setString(&cfg.ApiServer.Host, "API_HOST")
	setString(&cfg.ApiServer.Port, "API_PORT")
	setList(&cfg.ApiServer.AllowOrigins, "API_ALLOW_ORIGINS")

	setString(&cfg.Auth.AccessToken.Secret, "TOKEN_SECRET")
	setList(&cfg.Auth.AdminUserIDs, "ADMIN_USER_IDS")
	setString(&cfg.Session.Secret, "SESSION_SECRET")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")

	setBool(&cfg.Voting.AllowChange, "VOTING_ALLOW_CHANGE")
	setBool(&cfg.Voting.MultiSelect, "VOTING_MULTI_SELECT")
	setList(&cfg.Voting.ClosedStatuses, "VOTING_CLOSED_STATUSES")
	setDuration(&cfg.Voting.StorageTimeout, "VOTING_STORAGE_TIMEOUT")
	setDuration(&cfg.Voting.TallyCacheTTL, "VOTING_TALLY_CACHE_TTL")

	setBool(&cfg.Identity.TrustProxy, "IDENTITY_TRUST_PROXY")

	setString(&cfg.Log.Level, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}

	list := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	*dst = list
}

func setBool(dst *bool, key string) {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = b
	}
}

func setDuration(dst *time.Duration, key string) {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = d
	}
}

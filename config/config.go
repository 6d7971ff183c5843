package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string `toml:"env"`

	Database  DatabaseConfigs `toml:"database"`
	ApiServer ServerConfigs   `toml:"api_server"`
	Auth      AuthConfigs     `toml:"auth"`
	Session   SessionConfigs  `toml:"session"`
	Redis     RedisConfigs    `toml:"redis"`
	Voting    VotingConfigs   `toml:"voting"`
	Identity  IdentityConfigs `toml:"identity"`
	Log       LogConfigs      `toml:"log"`
}

type DatabaseConfigs struct {
	Driver   string `toml:"driver" validate:"oneof=mysql postgres"`
	Host     string `toml:"host" validate:"required"`
	Port     string `toml:"port" validate:"required"`
	Database string `toml:"database" validate:"required"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	LogLevel string `toml:"log_level"`
}

func (d *DatabaseConfigs) ConnectionString() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			d.Host, d.User, d.Password, d.Database, d.Port)
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host         string   `toml:"host"`
	Port         string   `toml:"port" validate:"required"`
	AllowOrigins []string `toml:"allow_origins"`
}

func (s ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type AuthConfigs struct {
	AccessToken  TokenConfigs `toml:"access_token"`
	AdminUserIDs []string     `toml:"admin_user_ids"`
}

type TokenConfigs struct {
	Name       string        `toml:"name" validate:"required"`
	Secret     string        `toml:"secret" validate:"required"`
	Expiration time.Duration `toml:"expiration"`
}

type SessionConfigs struct {
	Secret string `toml:"secret" validate:"required"`
	Name   string `toml:"name" validate:"required"`
}

type RedisConfigs struct {
	// An empty address selects the in-process cache.
	Addr string `toml:"addr"`
}

type VotingConfigs struct {
	AllowChange bool `toml:"allow_change"`

	// SurfaceAllowChange overrides AllowChange for a single surface ("basic" or "detailed").
	SurfaceAllowChange map[string]bool `toml:"surface_allow_change"`
	MultiSelect        bool            `toml:"multi_select"`
	ClosedStatuses     []string        `toml:"closed_statuses" validate:"min=1,dive,oneof=scheduled live paused finished postponed cancelled awarded"`
	StorageTimeout     time.Duration   `toml:"storage_timeout" validate:"gt=0"`
	MaxRaceRetries     int             `toml:"max_race_retries" validate:"gte=0"`
	TallyCacheTTL      time.Duration   `toml:"tally_cache_ttl" validate:"gt=0"`
	SnowflakeNode      int64           `toml:"snowflake_node" validate:"gte=0,lte=1023"`
}

type IdentityConfigs struct {
	ClientTokenHeader string `toml:"client_token_header" validate:"required"`
	ClientTokenCookie string `toml:"client_token_cookie"`

	// TrustProxy makes the resolver read the voter address from X-Forwarded-For.
	TrustProxy bool `toml:"trust_proxy"`
}

type LogConfigs struct {
	Level string `toml:"level"`
}

// Package config defines the environment-driven configuration for the
// mentor-idm server. Structs carry cleanenv tags and are loaded with
// cleanenv.ReadEnv from the main binary.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `env:"SERVER_HOST" env-default:"localhost"`
	Port uint16 `env:"SERVER_PORT" env-default:"4000"`
}

// Addr returns the host:port listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects the key-value store backend. Type "memory" keeps
// everything in process, "file" persists JSON under DataDir.
type StoreConfig struct {
	Type    string `env:"STORE_TYPE" env-default:"memory"`
	DataDir string `env:"STORE_DATA_DIR" env-default:"./data"`
}

// JWTConfig holds session token settings
type JWTConfig struct {
	Secret          string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer          string `env:"JWT_ISSUER" env-default:"mentor-idm"`
	SessionExpiry   string `env:"SESSION_EXPIRY" env-default:"15m"`
	TempTokenExpiry string `env:"TEMP_TOKEN_EXPIRY" env-default:"5m"`
}

// ParseSessionExpiry parses the session expiry duration
func (j JWTConfig) ParseSessionExpiry() (time.Duration, error) {
	return time.ParseDuration(j.SessionExpiry)
}

// ParseTempTokenExpiry parses the pending-2FA token expiry duration
func (j JWTConfig) ParseTempTokenExpiry() (time.Duration, error) {
	return time.ParseDuration(j.TempTokenExpiry)
}

// TwoFaConfig holds TOTP settings. Skew is the number of adjacent
// 30-second steps accepted on either side of the current one.
type TwoFaConfig struct {
	Issuer string `env:"TOTP_ISSUER" env-default:"mentor-idm"`
	Skew   uint   `env:"TOTP_SKEW" env-default:"1"`
}

// SignupConfig holds registration settings
type SignupConfig struct {
	RegistrationEnabled bool `env:"REGISTRATION_ENABLED" env-default:"true"`
	MinPasswordLength   int  `env:"MIN_PASSWORD_LENGTH" env-default:"8"`
}

// Config is the full server configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	JWT       JWTConfig
	TwoFa     TwoFaConfig
	Signup    SignupConfig
	RateLimit RateLimitConfig
}

package config

// RateLimitConfig contains rate limiting settings. The login and
// verification limits exist to slow down password and TOTP code
// guessing; refill rates are tokens per second.
type RateLimitConfig struct {
	PerIPEnabled    bool    `env:"RATELIMIT_PER_IP_ENABLED" env-default:"true"`
	PerIPCapacity   int     `env:"RATELIMIT_PER_IP_CAPACITY" env-default:"100"`
	PerIPRefillRate float64 `env:"RATELIMIT_PER_IP_REFILL_RATE" env-default:"1.67"`

	PerAccountEnabled    bool    `env:"RATELIMIT_PER_ACCOUNT_ENABLED" env-default:"true"`
	PerAccountCapacity   int     `env:"RATELIMIT_PER_ACCOUNT_CAPACITY" env-default:"200"`
	PerAccountRefillRate float64 `env:"RATELIMIT_PER_ACCOUNT_REFILL_RATE" env-default:"3.33"`

	LoginCapacity   int     `env:"RATELIMIT_LOGIN_CAPACITY" env-default:"10"`
	LoginRefillRate float64 `env:"RATELIMIT_LOGIN_REFILL_RATE" env-default:"0.167"`

	VerifyCapacity   int     `env:"RATELIMIT_VERIFY_CAPACITY" env-default:"10"`
	VerifyRefillRate float64 `env:"RATELIMIT_VERIFY_REFILL_RATE" env-default:"0.167"`

	SignupCapacity   int     `env:"RATELIMIT_SIGNUP_CAPACITY" env-default:"5"`
	SignupRefillRate float64 `env:"RATELIMIT_SIGNUP_REFILL_RATE" env-default:"0.017"`
}

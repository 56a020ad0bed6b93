package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the runtime configuration, loaded from the environment.
type Config struct {
	DBDriver  string        `envconfig:"DB_DRIVER" default:"sqlite3"`
	DBDSN     string        `envconfig:"DB_DSN" default:"docchat.db"`
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// RequireKnownUsers makes POST /chat/messages reject sender or
	// recipient usernames that have no provisioned account. Off by
	// default: usernames are freeform strings otherwise.
	RequireKnownUsers bool `envconfig:"REQUIRE_KNOWN_USERS" default:"false"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"noreply@docchat.local"`
}

func Load() (Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}

package config

import "time"

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" env:"TEAMTRACK_PORT"`
	// TeamPasswordHash, when set, is required to sign in. argon2id format.
	TeamPasswordHash string `yaml:"team_password_hash,omitempty" env:"TEAMTRACK_TEAM_PASSWORD_HASH"`
	// CoachPasscodeHash gates promotion to coach. argon2id format.
	CoachPasscodeHash string        `yaml:"coach_passcode_hash,omitempty" env:"TEAMTRACK_COACH_PASSCODE_HASH"`
	AllowGuests       bool          `yaml:"allow_guests" env:"TEAMTRACK_ALLOW_GUESTS"`
	TokenTTL          time.Duration `yaml:"token_ttl" env:"TEAMTRACK_TOKEN_TTL"`
}

// DrillConfig configures the focus grid drill.
type DrillConfig struct {
	DurationSeconds int `yaml:"duration_seconds" env:"TEAMTRACK_DRILL_SECONDS"`
	GridSize        int `yaml:"grid_size" env:"TEAMTRACK_DRILL_GRID_SIZE"`
}

// StorageConfig configures the SQLite database.
type StorageConfig struct {
	// Path is resolved against the project directory when relative.
	Path string `yaml:"path" env:"TEAMTRACK_DB_PATH"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"TEAMTRACK_LOG_LEVEL"`
	Format string `yaml:"format" env:"TEAMTRACK_LOG_FORMAT"`
}

// Config represents the .teamtrack/config.yaml file.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Drill   DrillConfig   `yaml:"drill"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

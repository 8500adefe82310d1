package config

const (
	defaultServerListen = ":8090"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Analyst: AnalystConfig{
			Debug: false,
		},
		Server: ServerConfig{
			Listen: defaultServerListen,
		},
	}
}

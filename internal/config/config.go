package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Input modes for the form view.
const (
	InputModeText   = "text"
	InputModeSelect = "select"
)

type Config struct {
	Server    ServerConfig
	Predictor PredictorConfig
	UI        UIConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type PredictorConfig struct {
	BaseURL string
}

type UIConfig struct {
	InputMode string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 5173,
		},
		Predictor: PredictorConfig{
			BaseURL: "http://127.0.0.1:8000",
		},
		UI: UIConfig{
			InputMode: InputModeSelect,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, a .env file in
// the working directory, and environment variables.
//
// On macOS the backend is UserDefaults (domain: com.m5front.app).
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/m5front/config.json.
//
// Environment variables (M5FRONT_*) override backend values on all platforms.
// Variables from .env never override ones already set in the environment.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), ".env")
}

func loadWith(b ConfigBackend, dotenv string) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "[WARN] could not read %s: %v. Ignoring it.\n", dotenv, err)
		}
	}
	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.UI.InputMode {
	case InputModeText, InputModeSelect:
	default:
		return fmt.Errorf("invalid ui.input_mode %q: must be %q or %q", cfg.UI.InputMode, InputModeText, InputModeSelect)
	}
	if cfg.Predictor.BaseURL == "" {
		return fmt.Errorf("missing required config: predictor.base_url. Set it via environment variable M5FRONT_PREDICTOR_BASE_URL")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	return nil
}

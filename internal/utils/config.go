package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

// ErrConfig means no usable credential survived loading. It is the only
// error that stops the process.
var ErrConfig = errors.New("config error")

const (
	EnvBackendURL = "BACKEND_URL"
	EnvUsername   = "THEATER_USERNAME"
	EnvPassword   = "THEATER_PASSWORD"
	EnvPIN        = "THEATER_PIN"
	EnvTheaterID  = "THEATER_ID"
	EnvLabel      = "THEATER_LABEL"
)

// ConfigSource says where configuration comes from. LookupEnv defaults
// to os.LookupEnv; values from EnvFile only fill keys the process
// environment does not set.
type ConfigSource struct {
	Path      string
	EnvFile   string
	LookupEnv func(string) (string, bool)
}

// LoadConfig reads the config file (if any), overlays the environment
// and validates the credential list.
func LoadConfig(src ConfigSource, logger *zap.SugaredLogger) (model.RuntimeConfig, error) {
	cfg, err := readConfigFile(src.Path)
	if err != nil {
		logger.Warnf("Ignoring config file %s: %v", src.Path, err)
		cfg = model.RuntimeConfig{}
	}

	lookup := envLookup(src, logger)
	applyEnv(&cfg, lookup)

	if cfg.BackendURL == "" {
		cfg.BackendURL = model.DefaultBackendURL
	}
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")

	agents := cfg.Agents[:0:0]
	for i, a := range cfg.Agents {
		if strings.TrimSpace(a.Username) == "" || a.Password == "" {
			logger.Warnf("Skipping agent #%d: username and password are required", i+1)
			continue
		}
		if a.Label == "" {
			a.Label = a.Username
		}
		agents = append(agents, a)
	}
	cfg.Agents = agents

	if len(cfg.Agents) == 0 {
		return cfg, fmt.Errorf("%w: no agent credentials configured (set %s and %s or add agents to %s)",
			ErrConfig, EnvUsername, EnvPassword, src.Path)
	}
	return cfg, nil
}

// readConfigFile returns an empty config when the file does not exist.
func readConfigFile(path string) (model.RuntimeConfig, error) {
	var cfg model.RuntimeConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return model.RuntimeConfig{}, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return model.RuntimeConfig{}, fmt.Errorf("parsing json: %w", err)
		}
	}
	return cfg, nil
}

func envLookup(src ConfigSource, logger *zap.SugaredLogger) func(string) (string, bool) {
	lookup := src.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if src.EnvFile == "" {
		return lookup
	}
	fileEnv, err := godotenv.Read(src.EnvFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("Ignoring env file %s: %v", src.EnvFile, err)
		}
		return lookup
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
}

// applyEnv overlays environment values. Env credentials replace the
// file's agent list instead of merging into it.
func applyEnv(cfg *model.RuntimeConfig, lookup func(string) (string, bool)) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if url := get(EnvBackendURL); url != "" {
		cfg.BackendURL = url
	}

	username := get(EnvUsername)
	password, _ := lookup(EnvPassword)
	if username == "" || password == "" {
		return
	}
	label := get(EnvLabel)
	if label == "" {
		label = model.EnvCredentialLabel
	}
	cfg.Agents = []model.AgentCredential{{
		Username:  username,
		Password:  password,
		PIN:       get(EnvPIN),
		TheaterID: get(EnvTheaterID),
		Label:     label,
	}}
}

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Minio     MinioConfig     `yaml:"minio"`
	Generator GeneratorConfig `yaml:"generator"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// GeneratorConfig selects the text generation backend. Provider is "mock" or
// "openai"; the mock backend needs no credentials and never fails.
type GeneratorConfig struct {
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AnalysisConfig tunes the analysis pipeline. EntitledPlans lists the plan ids
// whose organizations get compliance-playbook evaluation; Heuristics toggles
// the built-in substring checks; GeoRiskPath optionally overrides the built-in
// jurisdiction risk table with a JSON file.
type AnalysisConfig struct {
	EntitledPlans []string `yaml:"entitled_plans"`
	Heuristics    *bool    `yaml:"heuristics"`
	GeoRiskPath   string   `yaml:"geo_risk_path"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type User struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Organization string `yaml:"organization"`
	Plan         string `yaml:"plan"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Generator.Provider == "" {
		cfg.Generator.Provider = "mock"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gpt-4o-mini"
	}
	if cfg.Generator.TimeoutSeconds == 0 {
		cfg.Generator.TimeoutSeconds = 30
	}
	if len(cfg.Analysis.EntitledPlans) == 0 {
		cfg.Analysis.EntitledPlans = []string{"enterprise"}
	}
	if cfg.Analysis.Heuristics == nil {
		enabled := true
		cfg.Analysis.Heuristics = &enabled
	}

	return &cfg, nil
}

// HeuristicsEnabled reports whether the built-in substring checks run.
func (c *Config) HeuristicsEnabled() bool {
	return c.Analysis.Heuristics == nil || *c.Analysis.Heuristics
}

// EntitledPlan reports whether planID gets compliance-playbook analysis.
func (c *Config) EntitledPlan(planID string) bool {
	for _, p := range c.Analysis.EntitledPlans {
		if p == planID {
			return true
		}
	}
	return false
}

// FindUser finds a user by username.
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}

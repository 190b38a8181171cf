package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AnshRaj112/cleersplit-backend/internal/avatar"
	"github.com/AnshRaj112/cleersplit-backend/internal/groups"
	"github.com/AnshRaj112/cleersplit-backend/internal/session"
)

type Config struct {
	Port                string
	Environment         string // ENV: production, development, etc.
	LogLevel            string
	Host                string   // Raw HOST env (e.g. https://api.cleersplit.app)
	AllowedHost         string   // Hostname only for strict host check (production only)
	AllowedOrigins      []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	RedisURI            string   // empty disables the cross-instance event relay
	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	AvatarMaxBytes      int
	SignOutPolicy       session.SignOutPolicy
	InviteBaseURL       string
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE. Environment
// variables take precedence over it.
type fileConfig struct {
	Port           string   `yaml:"port"`
	Env            string   `yaml:"env"`
	LogLevel       string   `yaml:"log_level"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RedisURI       string   `yaml:"redis_uri"`
	Cloudinary     struct {
		CloudName string `yaml:"cloud_name"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		Folder    string `yaml:"folder"`
	} `yaml:"cloudinary"`
	AvatarMaxBytes int    `yaml:"avatar_max_bytes"`
	SignOutPolicy  string `yaml:"sign_out_policy"`
	InviteBaseURL  string `yaml:"invite_base_url"`
}

func Load() (*Config, error) {
	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", or(file.Env, "development"))))
	host := getEnv("HOST", or(file.Host, "http://localhost:8080"))

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = file.AllowedOrigins
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = parseOrigins(getEnv("FRONTEND_URL", "http://localhost:3000"))
	}

	policy, err := session.ParseSignOutPolicy(getEnv("SIGN_OUT_POLICY", file.SignOutPolicy))
	if err != nil {
		return nil, err
	}

	maxBytes := file.AvatarMaxBytes
	if maxBytes <= 0 {
		maxBytes = avatar.DefaultMaxBytes
	}
	if raw := os.Getenv("AVATAR_MAX_BYTES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("AVATAR_MAX_BYTES must be a positive integer, got %q", raw)
		}
		maxBytes = n
	}

	return &Config{
		Port:                getEnv("PORT", or(file.Port, "8080")),
		Environment:         env,
		LogLevel:            getEnv("LOG_LEVEL", file.LogLevel),
		Host:                host,
		AllowedHost:         allowedHost,
		AllowedOrigins:      allowedOrigins,
		RedisURI:            getEnv("REDIS_URI", file.RedisURI),
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", file.Cloudinary.CloudName),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", file.Cloudinary.APIKey),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", file.Cloudinary.APISecret),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", or(file.Cloudinary.Folder, avatar.DefaultFolder)),
		AvatarMaxBytes:      maxBytes,
		SignOutPolicy:       policy,
		InviteBaseURL:       getEnv("INVITE_BASE_URL", or(file.InviteBaseURL, groups.DefaultInviteBaseURL)),
	}, nil
}

// HasCloudinary reports whether avatar uploads can be hosted.
func (c *Config) HasCloudinary() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// hostname strips scheme, path and port from a URL-ish host value.
func hostname(host string) string {
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.TrimSpace(host)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

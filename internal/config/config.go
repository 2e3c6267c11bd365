package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

const (
	DefaultListenAddr      = ":3000"
	DefaultStaticDir       = "public"
	DefaultMetricsPath     = "/metrics"
	DefaultMaxMessageBytes = 4096
)

// Nakama runtime env keys that override the voice section.
const (
	EnvVoiceIssuer = "thirteen_voice_issuer"
	EnvVoiceDomain = "thirteen_voice_domain"
	EnvVoiceSecret = "thirteen_voice_secret"
)

type VoiceConfig struct {
	Issuer string `json:"issuer"`
	Domain string `json:"domain"`
	Secret string `json:"secret"`
}

// Enabled reports whether every credential needed to sign tokens is present.
func (v VoiceConfig) Enabled() bool {
	return v.Issuer != "" && v.Domain != "" && v.Secret != ""
}

type ServerConfig struct {
	ListenAddr string `json:"listen_addr"`
	StaticDir  string `json:"static_dir"`
	// AllowedOrigins restricts WebSocket upgrades; empty allows any origin.
	AllowedOrigins  []string    `json:"allowed_origins"`
	MetricsPath     string      `json:"metrics_path"`
	MaxMessageBytes int64       `json:"max_message_bytes"`
	Voice           VoiceConfig `json:"voice"`
}

var (
	cfg      *ServerConfig
	loadOnce sync.Once
	loadErr  error
)

// Default returns the configuration used when no file is given.
func Default() *ServerConfig {
	return &ServerConfig{
		ListenAddr:      DefaultListenAddr,
		StaticDir:       DefaultStaticDir,
		MetricsPath:     DefaultMetricsPath,
		MaxMessageBytes: DefaultMaxMessageBytes,
	}
}

// LoadServerConfig loads the server configuration from the given path.
func LoadServerConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read server config: %w", err)
			return
		}

		c, err := parseServerConfig(data)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

// GetServerConfig returns the loaded configuration, or defaults when nothing was loaded.
func GetServerConfig() *ServerConfig {
	if cfg == nil {
		return Default()
	}
	c := *cfg
	return &c
}

func parseServerConfig(data []byte) (*ServerConfig, error) {
	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server config: %w", err)
	}
	c.fillDefaults()
	return c, nil
}

func (c *ServerConfig) fillDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.StaticDir == "" {
		c.StaticDir = DefaultStaticDir
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = DefaultMaxMessageBytes
	}
}

// ApplyEnv overrides the voice credentials from Nakama runtime env values.
func (c *ServerConfig) ApplyEnv(env map[string]string) {
	if val, ok := env[EnvVoiceIssuer]; ok && val != "" {
		c.Voice.Issuer = val
	}
	if val, ok := env[EnvVoiceDomain]; ok && val != "" {
		c.Voice.Domain = val
	}
	if val, ok := env[EnvVoiceSecret]; ok && val != "" {
		c.Voice.Secret = val
	}
}

// OriginAllowed reports whether a WebSocket upgrade from origin is accepted.
func (c *ServerConfig) OriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

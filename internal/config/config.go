package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Sheets      SheetsConfig              `json:"sheets"`
	Chat        ChatConfig                `json:"chat"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Redis       RedisConfig               `json:"redis"`
}

type BasicConfig struct {
	ServerAddress         string `json:"server_address"`
	StaticDir             string `json:"static_dir"`
	UploadDir             string `json:"upload_dir"`
	MaxUploadBytes        int64  `json:"max_upload_bytes"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

type SheetsConfig struct {
	CredentialsFile   string `json:"credentials_file"`
	ContactSheet      string `json:"contact_sheet"`
	ApplicationsSheet string `json:"applications_sheet"`
	AccountsSheet     string `json:"accounts_sheet"`
}

type ChatConfig struct {
	Provider          string `json:"provider"`
	SystemPrompt      string `json:"system_prompt"`
	SessionTTLMinutes int    `json:"session_ttl_minutes"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

// RedisConfig selects the redis-backed chat history store. An empty host
// keeps histories in process memory.
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

const (
	DefaultContactSheet      = "TechSolutions Contact Form Submissions"
	DefaultApplicationsSheet = "TechSolutions Job Applications"
	DefaultAccountsSheet     = "TechSolutions User Accounts"

	DefaultMaxUploadBytes = 16 << 20
	DefaultRequestTimeout = 30

	DefaultSystemPrompt = `You are an AI assistant for TechSolutions, a software development company that specializes in custom software solutions, mobile app development, cloud services, and AI integrations. Your role is to help website visitors by answering questions about our services, pricing, careers, and general information about the company.

Here are some key details about TechSolutions:

1. Services: We offer custom software development, mobile app development (iOS and Android), web application development, cloud solutions, AI and machine learning integration, DevOps services, and IT consulting.

2. Company: Founded in 2010, we have over 200 employees across five offices globally. We've worked with clients in industries including healthcare, finance, retail, education, and manufacturing.

3. Pricing: Our software development starts at $5,999 for basic projects, with business packages from $12,999, and enterprise solutions with custom pricing. Mobile app development starts at $8,999.

4. Expertise: We specialize in technologies including JavaScript/TypeScript, React, Angular, Python, Node.js, AWS/Azure/GCP, and mobile development frameworks.

5. Careers: We're always looking for talented developers, designers, product managers, and marketing specialists. We offer competitive salaries, flexible work arrangements, healthcare benefits, and professional development.

Be friendly, helpful, and concise in your responses. If you don't know the answer to a specific question, offer to connect the visitor with a human representative through our contact form.`
)

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Sheets.CredentialsFile == "" {
		return nil, fmt.Errorf("sheets.credentials_file must be configured")
	}
	if !filepath.IsAbs(cfg.Sheets.CredentialsFile) {
		cfg.Sheets.CredentialsFile = filepath.Join(filepath.Dir(absPath), cfg.Sheets.CredentialsFile)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Sheets.ContactSheet == "" {
		cfg.Sheets.ContactSheet = DefaultContactSheet
	}
	if cfg.Sheets.ApplicationsSheet == "" {
		cfg.Sheets.ApplicationsSheet = DefaultApplicationsSheet
	}
	if cfg.Sheets.AccountsSheet == "" {
		cfg.Sheets.AccountsSheet = DefaultAccountsSheet
	}
	if cfg.BasicConfig.UploadDir == "" {
		cfg.BasicConfig.UploadDir = "uploads"
	}
	if cfg.BasicConfig.MaxUploadBytes <= 0 {
		cfg.BasicConfig.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.BasicConfig.RequestTimeoutSeconds <= 0 {
		cfg.BasicConfig.RequestTimeoutSeconds = DefaultRequestTimeout
	}
	if cfg.Chat.Provider == "" {
		cfg.Chat.Provider = "gemini"
	}
	if cfg.Chat.SystemPrompt == "" {
		cfg.Chat.SystemPrompt = DefaultSystemPrompt
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDataSourceToken = "PLUANG_API_TOKEN"
	EnvAIKey           = "OPENAI_API_KEY"
	EnvNewsKey         = "NEWSDATA_API_KEY"
	EnvNewsToggle      = "ENABLE_STOCK_NEWS"
)

// ErrMissingCredential 表示启动所需的凭据缺失。
var ErrMissingCredential = errors.New("missing credential")

// LoadDotEnv 读取 .env 文件；文件不存在时静默跳过，已有的环境变量不会被覆盖。
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// resolveCredentials 从环境变量填充凭据，并应用 ENABLE_STOCK_NEWS 覆盖。
func resolveCredentials(c *Config, getenv func(string) string) error {
	if raw := strings.TrimSpace(getenv(EnvNewsToggle)); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s must be a boolean: %w", EnvNewsToggle, err)
		}
		c.News.Enabled = enabled
	}
	c.Credentials = Credentials{
		DataSourceToken: strings.TrimSpace(getenv(EnvDataSourceToken)),
		AIKey:           strings.TrimSpace(getenv(EnvAIKey)),
		NewsKey:         strings.TrimSpace(getenv(EnvNewsKey)),
	}
	if c.Credentials.DataSourceToken == "" {
		return fmt.Errorf("%w: %s", ErrMissingCredential, EnvDataSourceToken)
	}
	if c.Credentials.AIKey == "" {
		return fmt.Errorf("%w: %s", ErrMissingCredential, EnvAIKey)
	}
	if c.News.Enabled && c.Credentials.NewsKey == "" {
		return fmt.Errorf("%w: %s (news enabled)", ErrMissingCredential, EnvNewsKey)
	}
	return nil
}

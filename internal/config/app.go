package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/Monce-AI/concierge.aws.monce.ai/pkg/log"
)

type AppConfig struct {
	DataDir string `env:"CONCIERGE_DATA_DIR" envDefault:"/opt/concierge/data"`

	// Conversation history is capped to the most recent entries.
	ConversationCap int `env:"CONCIERGE_CONVERSATION_CAP" envDefault:"200"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetDataDir() string {
	return c.DataDir
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.DataDir, "concierge.db")
}

func (c AppConfig) GetManifestPath() string {
	return filepath.Join(c.DataDir, "MANIFEST.md")
}

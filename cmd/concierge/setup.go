package main

import (
	"context"
	"database/sql"

	"github.com/Monce-AI/concierge.aws.monce.ai/internal/config"
	"github.com/Monce-AI/concierge.aws.monce.ai/internal/service/digest"
	"github.com/Monce-AI/concierge.aws.monce.ai/internal/service/ingest"
	"github.com/Monce-AI/concierge.aws.monce.ai/internal/service/memory"
	"github.com/Monce-AI/concierge.aws.monce.ai/internal/storage/sqlite"
)

// app wires the record store and the services on top of it.
type app struct {
	cfg     *config.AppConfig
	db      *sql.DB
	memory  *memory.Service
	ingest  *ingest.Service
	engine  *digest.Engine
	digests *sqlite.DigestRepo
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.NewAppConfig(ctx)

	db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
	if err != nil {
		return nil, err
	}

	memRepo := sqlite.NewMemoryRepo(db)
	convRepo := sqlite.NewConversationRepo(db, cfg.ConversationCap)
	digRepo := sqlite.NewDigestRepo(db)

	return &app{
		cfg:     cfg,
		db:      db,
		memory:  memory.NewService(memRepo, convRepo, cfg.GetManifestPath()),
		ingest:  ingest.NewService(memRepo),
		engine:  digest.NewEngine(memRepo, digRepo),
		digests: digRepo,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

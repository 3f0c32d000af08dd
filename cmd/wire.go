package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"

	"github.com/chadvangaalen/sfr/internal/adapters/api"
	"github.com/chadvangaalen/sfr/internal/adapters/config"
	"github.com/chadvangaalen/sfr/internal/application"
	"github.com/chadvangaalen/sfr/internal/ports"
	"github.com/chadvangaalen/sfr/internal/version"
)

type app struct {
	cfg    config.Config
	engine *application.Engine
	logger *log.Logger
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}

	client, err := api.NewClient(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("wire api client: %w", err)
	}
	client.RequestTimeout = cfg.APITimeout

	logger := log.New(os.Stderr, "sfr: ", log.LstdFlags)

	engine := application.New(application.Options{
		Sender:  client,
		Alerter: ports.AlerterFunc(func(msg string) { logger.Print(msg) }),
		Logger:  logger,
		Version: version.Version,
	})

	return &app{
		cfg:    cfg,
		engine: engine,
		logger: logger,
	}, nil
}

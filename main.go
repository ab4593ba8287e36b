package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pauloqxm/voce-denuncia/config"
	"github.com/pauloqxm/voce-denuncia/services"
	"github.com/pauloqxm/voce-denuncia/source"
	"github.com/pauloqxm/voce-denuncia/utils"
)

var (
	cfg    *config.Config
	logger *utils.Logger
)

var rootCmd = &cobra.Command{
	Use:   "denuncias",
	Short: "Mapa e lista de denúncias populares",
	Long: `Loads the complaints sheet, normalizes it and serves a filterable
map and table. Without a subcommand it runs the dashboard server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger = utils.NewLoggerWithOptions(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLoader wires the configured source into a Loader. The returned close
// function releases the source's resources.
func newLoader() (*services.Loader, func(), error) {
	var (
		src     services.Fetcher
		closeFn = func() {}
	)

	switch cfg.SourceKind {
	case config.SourceFile:
		src = source.NewFileSource(cfg.SourceFile)
	case config.SourcePostgres:
		pg, err := source.NewPostgresSource(cfg.DSN(), cfg.PostgresTable)
		if err != nil {
			return nil, nil, err
		}
		src = pg
		closeFn = func() {
			if err := pg.Close(); err != nil {
				logger.Warn("[main] Closing postgres source: %v", err)
			}
		}
	default:
		src = source.NewHTTPSource(cfg.SheetURL, nil)
	}

	logger.Debug("[main] Source: %s", src.Name())
	return services.NewLoader(src, cfg, logger), closeFn, nil
}

package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	"vturesults-backend/lib/configutil"
	"vturesults-backend/lib/recognize"
	"vturesults-backend/lib/resultstore"
	"vturesults-backend/lib/scrapers/vturesults"
	"vturesults-backend/lib/telemetry"
	"vturesults-backend/services/results"

	"github.com/spf13/cobra"
)

type Config struct {
	BaseUrl        string `json:"base_url"`
	SitePath       string `json:"site_path"`
	MaxAttempts    int    `json:"max_attempts"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	SkipTlsVerify  bool   `json:"skip_tls_verify"`
	DbPath         string `json:"db_path"`
	OcrLanguage    string `json:"ocr_language"`
}

var (
	verbose  bool
	sitePath string
	csvPath  string
)

var rootCmd = &cobra.Command{
	Use:   "results-cli",
	Short: "Fetches exam results from the VTU results portal.",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&sitePath, "site", "", "per-exam site path, e.g. JJEcbcs25 (overrides config)")
	rootCmd.PersistentFlags().StringVar(&csvPath, "csv", "", "also export the fetched records to a csv file")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

// setup wires config, telemetry, the sqlite store and the scraper into
// a ready-to-use service. The returned cleanup flushes telemetry and
// closes the db.
func setup(ctx context.Context) (results.Service, Config, func()) {
	telemetry.InitSlog(verbose)

	config, err := configutil.ReadRecursively[Config]("results.json5")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		fatal("read config", err)
	}
	if sitePath != "" {
		config.SitePath = sitePath
	}
	if config.SitePath == "" {
		fatal("no site path", errors.New("set site_path in results.json5 or pass --site"))
	}
	if config.DbPath == "" {
		config.DbPath = "results.db"
	}

	tel, err := telemetry.SetupFromEnv(ctx, "results-cli")
	if err != nil {
		fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	db, err := sql.Open("sqlite", config.DbPath)
	if err != nil {
		fatal("open result db", err)
	}
	if _, err := db.Exec(resultstore.Schema); err != nil {
		fatal("apply result db schema", err)
	}

	client, err := vturesults.NewClient(vturesults.ClientOptions{
		BaseUrl:       config.BaseUrl,
		MaxAttempts:   config.MaxAttempts,
		Timeout:       time.Duration(config.TimeoutSeconds) * time.Second,
		SkipTlsVerify: config.SkipTlsVerify,
		Recognizer:    recognize.NewTesseract(recognize.TesseractOptions{Language: config.OcrLanguage}),
	})
	if err != nil {
		fatal("build portal client", err)
	}

	cleanup := func() {
		db.Close()
		tel.Shutdown(context.Background())
	}
	return results.NewService(db, client), config, cleanup
}

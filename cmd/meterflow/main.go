package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/gridsink/meterflow/internal/api"
	"github.com/gridsink/meterflow/internal/config"
	"github.com/gridsink/meterflow/internal/pipeline"
	"github.com/gridsink/meterflow/internal/source"
	"github.com/gridsink/meterflow/internal/store"
)

var cli struct {
	Config string `env:"METERFLOW_CONFIG" help:"Path to YAML config file."`
	Source string `env:"METERFLOW_SOURCE" help:"Override source file path or URL."`
	Output string `env:"METERFLOW_OUTPUT" help:"Override output file path."`
	DB     string `env:"METERFLOW_DB" help:"Override SQLite database path."`
	Port   int    `env:"METERFLOW_PORT" help:"Override HTTP server port."`

	Once       bool `help:"Run one full pipeline cycle and exit."`
	NoSchedule bool `help:"Disable the scheduler (server only, for local dev)."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("meterflow"),
		kong.Description("Recurring energy meter measurements pipeline."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	applyOverrides(&cfg)

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	src, err := buildSource(cfg.Source)
	if err != nil {
		log.Fatalf("configure source: %v", err)
	}

	sched := pipeline.NewScheduler(pipeline.Config{
		Source:          src,
		InputDelimiter:  cfg.InputDelimiter(),
		OutputPath:      cfg.Output.Path,
		OutputDelimiter: cfg.OutputDelimiter(),
		Interval:        cfg.Schedule.Interval.Std(),
		LoadOffset:      cfg.Schedule.LoadOffset.Std(),
		CleanOffset:     cfg.Schedule.CleanOffset.Std(),
		AggregateOffset: cfg.Schedule.AggregateOffset.Std(),
		ExportOffset:    cfg.Schedule.ExportOffset.Std(),
	}, st)

	if cli.Once {
		log.Println("running single pipeline cycle")
		sched.RunOnce()
		log.Println("done")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cli.NoSchedule {
		// The start loop re-arms every minute so a scheduler that was
		// stopped out of band comes back on its own. A start while already
		// running is rejected inside Start.
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				if err := sched.Start(ctx); err != nil && !errors.Is(err, pipeline.ErrAlreadyStarted) {
					log.Printf("start scheduler: %v", err)
				}
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
		defer sched.Stop()
	} else {
		log.Println("scheduling disabled (--no-schedule)")
	}

	server := api.NewServer(st, cfg.Port, func() string { return sched.State().String() })
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func applyOverrides(cfg *config.Config) {
	if cli.Source != "" {
		cfg.Source.Path = cli.Source
		cfg.Source.URL = cli.Source
	}
	if cli.Output != "" {
		cfg.Output.Path = cli.Output
	}
	if cli.DB != "" {
		cfg.DBPath = cli.DB
	}
	if cli.Port != 0 {
		cfg.Port = cli.Port
	}
}

func buildSource(sc config.SourceConfig) (source.Source, error) {
	switch sc.Mode {
	case "file":
		return source.NewFile(sc.Path), nil
	case "ftp":
		return source.NewFTP(sc.FTP.Addr, sc.FTP.User, sc.FTP.Password, sc.FTP.Path), nil
	case "http":
		return source.NewHTTP(sc.URL), nil
	}
	return nil, errors.New("unknown source mode " + sc.Mode)
}

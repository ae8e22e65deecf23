package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
	"golang.org/x/sync/errgroup"

	"github.com/minepilot/minepilot/internal/app"
	"github.com/minepilot/minepilot/internal/config"
	"github.com/minepilot/minepilot/internal/database"
	"github.com/minepilot/minepilot/internal/engine"
	"github.com/minepilot/minepilot/internal/memory"
)

var (
	log = logrus.New()

	configPath string
)

func init() {
	const (
		defaultConfigPath = "minepilot.json"
		usage             = "config file path"
	)
	flag.StringVar(&configPath, "config", defaultConfigPath, usage)
	flag.StringVar(&configPath, "c", defaultConfigPath, usage+" (shorthand)")
}

func setupLogging(cfg *config.Config) {
	logLevel := logrus.InfoLevel
	if cfg.Development() {
		logLevel = logrus.DebugLevel
	}
	log.SetLevel(logLevel)
	log.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	if cfg.LogFile == "" {
		return
	}
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   cfg.LogFile,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     28,
		Level:      logLevel,
		Formatter: &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		},
	})
	if err != nil {
		log.WithError(err).Fatal("unable to create log file hook")
	}
	log.AddHook(hook)
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if err := config.ReadConfig(configPath, cfg); err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("unable to read config %s: %s", configPath, err.Error())
		}
		log.Warnf("config %s not found, using defaults", configPath)
	}

	setupLogging(cfg)

	if flag.Arg(0) == "analyze" {
		if err := analyzeOnce(cfg, flag.Arg(1)); err != nil {
			log.Fatal(err)
		}
		return
	}

	mainCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	log.Info("starting up, mode = ", cfg.Mode)
	log.WithFields(cfg.Fields()).Debug("config")

	g, gCtx := errgroup.WithContext(mainCtx)
	g.Go(func() error {
		return app.New(log, cfg, database.Migrations).Start(gCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("exit reason: %s\n", err)
	}
}

// analyzeOnce reads a single turn snapshot from a file (or stdin when
// no path is given), runs the decision engine against the configured
// memory file, and prints the decision as JSON.
func analyzeOnce(cfg *config.Config, path string) error {
	var (
		input []byte
		err   error
	)
	if path == "" || path == "-" {
		input, err = io.ReadAll(os.Stdin)
	} else {
		input, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("unable to read turn snapshot: %w", err)
	}

	var in engine.TurnInput
	if err := json.Unmarshal(input, &in); err != nil {
		return fmt.Errorf("unable to parse turn snapshot: %w", err)
	}

	ctx := context.Background()
	mem := memory.Load(ctx, log, memory.NewFileStore(cfg.MemoryFile))
	eng := engine.New(log, mem, nil)

	decision := eng.Analyze(in)
	out, err := json.MarshalIndent(decision, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

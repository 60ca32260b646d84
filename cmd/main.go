package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
	"github.com/Riboost-Studio/theater-pos-agent/internal/services"
	"github.com/Riboost-Studio/theater-pos-agent/internal/utils"
)

const (
	appName    = "Theater POS Agent"
	appVersion = "1.0.0"
	appAuthor  = "Riboost Studio"

	configFile  = "config.json"
	envFile     = ".env"
	logFile     = "pos-agent.log"
	receiptsDir = "receipts"
)

// --- Main ---

func main() {
	app := &cli.App{
		Name:    "pos-agent",
		Usage:   "Print theater POS orders as they arrive",
		Version: appVersion,
		Flags:   globalFlags(),
		Action:  runAction,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Connect to the backend and print receipts (default)",
				Action: runAction,
			},
			{
				Name:   "check",
				Usage:  "Show system requirements and the resolved configuration",
				Action: checkAction,
			},
		},
		ExitErrHandler: exitErrHandler,
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "work-dir",
			Usage:   "directory for config, logs and receipt files (default: next to the executable)",
			EnvVars: []string{"POS_AGENT_WORK_DIR"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "config file (.json, .jsonc, .yaml)",
			EnvVars: []string{"POS_AGENT_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "env-file",
			Usage:   "dotenv file with THEATER_* credentials",
			EnvVars: []string{"POS_AGENT_ENV_FILE"},
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "log file, appended to",
			EnvVars: []string{"POS_AGENT_LOG_FILE"},
		},
		&cli.BoolFlag{
			Name:    "stderr",
			Usage:   "also log to stderr",
			EnvVars: []string{"POS_AGENT_STDERR"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "enable debug logging",
			EnvVars: []string{"POS_AGENT_DEBUG"},
		},
		&cli.StringFlag{
			Name:    "renderer",
			Usage:   "receipt renderer: auto, chrome, pdf or html",
			Value:   "auto",
			EnvVars: []string{"POS_AGENT_RENDERER"},
		},
	}
}

// paths resolves every file location relative to the work dir.
type paths struct {
	WorkDir  string
	Config   string
	EnvFile  string
	LogFile  string
	Receipts string
}

func resolvePaths(c *cli.Context) (paths, error) {
	dir := c.String("work-dir")
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return paths{}, fmt.Errorf("locating executable: %w", err)
		}
		dir = filepath.Dir(exe)
	}

	orDefault := func(flag, name string) string {
		if v := c.String(flag); v != "" {
			return v
		}
		return filepath.Join(dir, name)
	}
	return paths{
		WorkDir:  dir,
		Config:   orDefault("config", configFile),
		EnvFile:  orDefault("env-file", envFile),
		LogFile:  orDefault("log-file", logFile),
		Receipts: filepath.Join(dir, receiptsDir),
	}, nil
}

func runAction(c *cli.Context) error {
	p, err := resolvePaths(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger, closeLog, err := utils.NewLogger(utils.LogOptions{
		File:   p.LogFile,
		Stderr: c.Bool("stderr"),
		Debug:  c.Bool("debug"),
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Log error: %v", err), 1)
	}
	defer closeLog()
	defer zap.RedirectStdLog(logger)()

	log := logger.Sugar()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Fatal panic: %v\n%s", r, debug.Stack())
			_ = logger.Sync()
			os.Exit(2)
		}
	}()

	log.Infof("%s v%s starting (work dir: %s)", appName, appVersion, p.WorkDir)

	// 1. Load Configuration
	cfg, err := utils.LoadConfig(utils.ConfigSource{Path: p.Config, EnvFile: p.EnvFile}, log)
	if err != nil {
		log.Errorf("Config error: %v", err)
		return cli.Exit("", 1)
	}
	log.Infof("Configuration loaded: backend=%s, %d credentials", cfg.BackendURL, len(cfg.Agents))

	// 2. Pick the receipt renderer
	renderer, err := selectRenderer(c.String("renderer"), log)
	if err != nil {
		log.Errorf("%v", err)
		return cli.Exit("", 1)
	}

	// 3. Start the agent
	engine := &services.ReceiptEngine{
		Renderer: renderer,
		Spooler:  services.NewSystemSpooler(),
		App:      model.AppInfo{Name: appName, Version: appVersion, Author: appAuthor},
		WorkDir:  p.Receipts,
	}
	engine.SweepStale(log)
	agent := services.NewAgent(cfg, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent.Run(ctx)
	log.Infof("Stopped.")
	return nil
}

func selectRenderer(name string, log *zap.SugaredLogger) (services.Renderer, error) {
	switch name {
	case "html":
		log.Infof("Rendering receipts as HTML")
		return services.HTMLRenderer{}, nil
	case "pdf":
		log.Infof("Rendering receipts with the built-in PDF writer")
		return services.PDFRenderer{}, nil
	case "chrome", "auto":
		found, path := utils.CheckChrome()
		if found {
			log.Infof("Rendering receipts with Chrome at %s", path)
			return services.ChromeRenderer{ExecPath: path}, nil
		}
		if name == "chrome" {
			return nil, errors.New("renderer chrome requested but Chrome was not found")
		}
		log.Warnf("Chrome not found, rendering receipts with the built-in PDF writer")
		return services.PDFRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown renderer %q", name)
}

func checkAction(c *cli.Context) error {
	p, err := resolvePaths(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	out := c.App.Writer

	fmt.Fprintf(out, "%s v%s\n", appName, appVersion)
	sysErr := utils.ReportSystem(out, utils.DetectSystem())

	fmt.Fprintf(out, "\nConfig file: %s\nEnv file:    %s\n", p.Config, p.EnvFile)
	cfg, err := utils.LoadConfig(utils.ConfigSource{Path: p.Config, EnvFile: p.EnvFile}, zap.NewNop().Sugar())
	if err != nil {
		fmt.Fprintf(out, "✗ %v\n", err)
		return cli.Exit("", 1)
	}
	fmt.Fprintf(out, "Backend:     %s\n", cfg.BackendURL)
	for _, a := range cfg.Agents {
		scope := "all theaters"
		if a.TheaterID != "" {
			scope = "theater " + a.TheaterID
		}
		fmt.Fprintf(out, "  - %s (user %s, %s)\n", a.Label, a.Username, scope)
	}

	if sysErr != nil {
		return cli.Exit(sysErr.Error(), 1)
	}
	return nil
}

// exitErrHandler keeps the exit code of cli.Exit errors.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		if msg := exitCoder.Error(); msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

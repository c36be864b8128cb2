// @title        demoapp
// @version      1.0
// @description  Demo web application serving home, health and info pages.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/projecthelena/demoapp/internal/api"
	"github.com/projecthelena/demoapp/internal/config"
	"github.com/projecthelena/demoapp/internal/logging"
	"github.com/projecthelena/demoapp/internal/views"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "demoapp",
		Usage: "Demo web application with home, health and info pages",
		Flags:  commonFlags(),
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server (default)",
				Flags:  commonFlags(),
				Action: serveAction,
			},
			{
				Name:   "version",
				Usage:  "Print the configured application name and version",
				Flags:  commonFlags(),
				Action: versionAction,
			},
		},
	}
}

// commonFlags returns fresh flag values; urfave flags record parse state, so
// the app and each command need their own instances.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to an optional YAML config file",
			Value:   "application.yml",
			EnvVars: []string{"CONFIG_FILE"},
		},
		&cli.StringFlag{
			Name:  "listen",
			Usage: "listen address, overrides LISTEN_ADDR",
		},
	}
}

// flagValue prefers the nearest context where name was set explicitly, so
// `demoapp --config a.yml version` and `demoapp version --config a.yml` agree.
func flagValue(c *cli.Context, name string) string {
	for _, ctx := range c.Lineage() {
		if ctx.IsSet(name) {
			return ctx.String(name)
		}
	}
	return c.String(name)
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(flagValue(c, "config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if listen := flagValue(c, "listen"); listen != "" {
		cfg.ListenAddr = listen
	}
	return cfg, nil
}

func versionAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	name := cfg.ApplicationName
	if name == "" {
		name = c.App.Name
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s %s (%s, %s)\n", name, cfg.ApplicationVersion, runtime.Version(), cfg.FrameworkVersion)
	return err
}

func serveAction(c *cli.Context) error {
	logger := logging.New("demoapp")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.ApplicationName == "" {
		logger.Println("APPLICATION_NAME is not set; pages will show an empty application name")
	}

	renderer, err := views.New(cfg.MinifyHTML)
	if err != nil {
		return fmt.Errorf("load views: %w", err)
	}

	probe := api.NewProbe()
	metrics := api.NewMetrics(cfg)

	router := api.NewRouter(cfg, renderer, probe, metrics)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("Starting %s %s on %s", cfg.ApplicationName, cfg.ApplicationVersion, ln.Addr())
	return run(ctx, srv, ln, probe, logger)
}

// run serves on ln until ctx is done, then drains: readiness goes false first
// so load balancers stop routing before connections are closed.
func run(ctx context.Context, srv *http.Server, ln net.Listener, probe *api.Probe, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Println("Shutting down server...")
	probe.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Println("Server exiting")
	return nil
}

// Program lightsim drives a traffic light through its phases, with a number
// of simulated vehicles that wait for the light to turn green before they
// cross the intersection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/creachadair/lightsync"
	"github.com/creachadair/lightsync/tasks"
)

const defaultCross = 500 * time.Millisecond

var logLevel = new(slog.LevelVar)

// CLI defines the command-line flags for lightsim.
type CLI struct {
	Config   string        `help:"YAML config file path" short:"c" type:"path"`
	Vehicles int           `help:"number of vehicles (overrides config)" short:"n"`
	Duration time.Duration `help:"how long to run; 0 runs until interrupted" short:"t" default:"30s"`
	Debug    bool          `help:"enable debug logging" short:"d"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	var cli CLI
	kong.Parse(&cli, kong.Description("Simulate vehicles at a randomly-cycling traffic light."))
	if err := run(ctx, &cli, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cli *CLI, logger *slog.Logger) error {
	if cli.Debug {
		logLevel.Set(slog.LevelDebug)
	}
	cfg := new(Config)
	if cli.Config != "" {
		var err error
		cfg, err = LoadConfig(cli.Config)
		if err != nil {
			return err
		}
	}
	if cli.Vehicles > 0 {
		cfg.Vehicles = cli.Vehicles
	}
	if cfg.Vehicles <= 0 {
		cfg.Vehicles = 1
	}
	opts, err := cfg.CyclerOptions()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cross, err := cfg.CrossTime()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	opts.Logf = func(msg string, args ...any) {
		logger.Debug(fmt.Sprintf(msg, args...))
	}

	if cli.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Duration)
		defer cancel()
	}

	light := lightsync.NewCycler(opts)
	g := tasks.New(ctx)
	light.Start(g)
	logger.Info("light started", "phase", light.Current().String(), "vehicles", cfg.Vehicles)

	for i := range cfg.Vehicles {
		g.Go(func(ctx context.Context) error {
			return drive(ctx, light, logger.With("vehicle", i+1), cross)
		})
	}

	err = g.Wait()
	logger.Info("simulation ended", "toggles", light.Toggles())
	return err
}

// drive repeatedly waits for the light to turn green and crosses, until ctx
// ends or the light stops.
func drive(ctx context.Context, light *lightsync.Cycler, logger *slog.Logger, cross time.Duration) error {
	for {
		logger.Debug("waiting at red light")
		start := time.Now()
		err := light.WaitForGreen(ctx)
		if errors.Is(err, lightsync.ErrStopped) || ctx.Err() != nil {
			return nil
		} else if err != nil {
			return err
		}
		logger.Info("crossing", "waited", time.Since(start).Round(time.Millisecond).String())

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(cross):
		}
	}
}

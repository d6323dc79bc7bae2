package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Carmen-Shannon/pcss-go/internal/config"
	"github.com/Carmen-Shannon/pcss-go/internal/demo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Demo overrides
	width            int
	height           int
	msaa             int
	shadowResolution int
	software         bool

	// Logger
	logger *zap.Logger
)

// GLFW must be driven from the process's main thread.
func init() {
	runtime.LockOSThread()
}

// rootCmd runs the demo
var rootCmd = &cobra.Command{
	Use:   "pcss",
	Short: "Percentage-closer soft shadows on WebGPU",
	Long: `pcss renders a floor and a wall with a window cut into it, lit by a directional
light. Each frame is drawn twice: once from the light into a shadow map and once
from the camera, filtering the shadow map with percentage-closer soft shadows.

Fly with WASD, Space and LeftControl, hold LeftShift to move faster, look around
with the mouse and press Escape to quit. Shadow settings in the config file are
reloaded while the demo runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runDemo,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")

	rootCmd.Flags().IntVar(&width, "width", 0, "Window width in pixels (overrides config)")
	rootCmd.Flags().IntVar(&height, "height", 0, "Window height in pixels (overrides config)")
	rootCmd.Flags().IntVar(&msaa, "msaa", 0, "MSAA sample count, 1 or 4 (overrides config)")
	rootCmd.Flags().IntVar(&shadowResolution, "shadow-resolution", 0, "Shadow map size in texels (overrides config)")
	rootCmd.Flags().BoolVar(&software, "software", false, "Force a software (fallback) GPU adapter")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runDemo loads the config, applies flag overrides and runs the demo until the window
// closes or the process is interrupted.
func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", zap.String("config", configPath))
	if err := demo.Run(ctx, cfg, logger, demo.WithConfigPath(configPath)); err != nil {
		logger.Error("demo failed", zap.Error(err))
		return err
	}
	return nil
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Window.Width = width
	}
	if flags.Changed("height") {
		cfg.Window.Height = height
	}
	if flags.Changed("msaa") {
		cfg.Render.MSAA = msaa
	}
	if flags.Changed("shadow-resolution") {
		cfg.Shadow.Resolution = shadowResolution
	}
	if flags.Changed("software") {
		cfg.Render.ForceSoftware = software
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

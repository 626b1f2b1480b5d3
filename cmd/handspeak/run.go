package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/handspeak/internal/app"
	"github.com/ayusman/handspeak/internal/capture"
	"github.com/ayusman/handspeak/internal/classifier"
	"github.com/ayusman/handspeak/internal/config"
	"github.com/ayusman/handspeak/internal/detector"
	"github.com/ayusman/handspeak/internal/interaction"
	"github.com/ayusman/handspeak/internal/logging"
	"github.com/ayusman/handspeak/internal/recognizer"
	"github.com/ayusman/handspeak/internal/server"
	"github.com/ayusman/handspeak/internal/speech"
	"github.com/ayusman/handspeak/internal/store"
	"github.com/ayusman/handspeak/internal/symbol"
	"github.com/ayusman/handspeak/internal/tray"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the camera pipeline, display server and speech",
		Args:  cobra.NoArgs,
		RunE:  runApp,
	}
	cmd.Flags().Bool("tray", false, "show the system tray menu")
	cmd.Flags().Bool("calculator", false, "start in calculator mode")
	cmd.Flags().String("addr", config.DefaultAddr, "HTTP listen address")
	cmd.Flags().Int("device", 0, "camera device ID")
	cmd.Flags().Bool("no-speech", false, "disable text to speech")
	return cmd
}

func runApp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"tray":          "tray",
		"server.addr":   "addr",
		"camera.device": "device",
	})
	if err != nil {
		return err
	}
	if calc, _ := cmd.Flags().GetBool("calculator"); calc {
		cfg.Interaction.StartMode = symbol.ModeCalculator.String()
	}
	if off, _ := cmd.Flags().GetBool("no-speech"); off {
		cfg.Speech.Enabled = false
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	log := logger.WithField("component", "main")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	table, err := loadTable(cfg)
	if err != nil {
		return err
	}

	det, err := detector.NewMediaPipeDetector(cfg.DetectorOptions(), logger)
	if err != nil {
		return fmt.Errorf("landmark detector: %w", err)
	}

	templates := classifier.NewTemplateClassifier()
	rec := recognizer.New(det, classifier.WithTimeout(templates, cfg.Classifier.Timeout), table, newGate(cfg), logger)

	appCfg := app.Config{
		Camera:        capture.NewCamera(cfg.CaptureOptions()),
		Recognizer:    rec,
		Machine:       interaction.NewMachine(cfg.MachineOptions()),
		Store:         st,
		Templates:     templates,
		Tolerance:     cfg.Classifier.Tolerance,
		FPS:           cfg.Camera.FPS,
		ProcessWidth:  cfg.Camera.ProcessWidth,
		ProcessHeight: cfg.Camera.ProcessHeight,
		Logger:        logger,
	}

	var queue *speech.Queue
	if cfg.Speech.Enabled {
		speaker, err := speech.NewCommandSpeaker(cfg.SpeechOptions())
		if err != nil {
			return err
		}
		queue = speech.NewQueue(speaker, cfg.Speech.QueueSize, logger)
		appCfg.Speaker = queue
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}
	if err := a.LoadTemplates(); err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.WithField("dir", staticDir).Info("Serving static files")
	}

	srv := server.New(server.Config{
		StaticDir:      staticDir,
		App:            a,
		StreamInterval: time.Second / time.Duration(cfg.Camera.FPS),
		Logger:         logger,
	})
	go func() {
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			log.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	if cfg.Tray {
		runTray(ctx, stop, a, "http://"+cfg.Server.Addr, log)
	} else {
		<-ctx.Done()
	}

	log.Info("Shutting down")
	shutdown(a, srv, queue, log)
	return nil
}

// runTray blocks in the tray loop until quit is selected or ctx ends.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, url string, log logrus.FieldLogger) {
	tr := tray.New()
	tr.OnToggle(a.Toggle)
	tr.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.WithError(err).Warn("Failed to open browser")
		}
	})
	tr.OnQuit(stop)

	reports, cancel := a.Subscribe()
	defer cancel()
	go tr.Watch(ctx, reports)

	go func() {
		<-ctx.Done()
		tr.Quit()
	}()
	tr.Run()
}

func shutdown(a *app.App, srv *server.Server, queue *speech.Queue, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown")
	}
	if queue != nil {
		if err := queue.Close(ctx); err != nil {
			log.WithError(err).Warn("Speech queue shutdown")
		}
	}
}

func openBrowser(url string) error {
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		name = "xdg-open"
	}
	return exec.Command(name, url).Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handspeak/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".handspeak", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}

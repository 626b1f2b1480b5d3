package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g.
// HANDSPEAK_INTERACTION_WORD_COOLDOWN=2s.
const EnvPrefix = "HANDSPEAK"

// Loader reads configuration from defaults, an optional YAML file, the
// environment and command-line flags, in increasing priority.
type Loader struct {
	// File is an explicit config file. When empty, handspeak.yaml is looked
	// up in the working directory and ~/.handspeak.
	File string
	// Flags maps config keys (e.g. "server.addr") to flags that override them
	// when set on the command line.
	Flags map[string]*pflag.Flag
}

// Load builds and validates the configuration.
func (l Loader) Load() (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if l.File != "" {
		v.SetConfigFile(l.File)
	} else {
		v.SetConfigName("handspeak")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".handspeak"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.File != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read %s: %w", describe(l.File), err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range l.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return Config{}, fmt.Errorf("config: bind flag %s: %w", flag.Name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.LabelsFile = expandHome(cfg.LabelsFile)
	cfg.Detector.ScriptPath = expandHome(cfg.Detector.ScriptPath)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it and
// Unmarshal sees it.
func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]any{
		"log_level":                         d.LogLevel,
		"log_format":                        d.LogFormat,
		"data_dir":                          d.DataDir,
		"labels_file":                       d.LabelsFile,
		"tray":                              d.Tray,
		"camera.device":                     d.Camera.Device,
		"camera.width":                      d.Camera.Width,
		"camera.height":                     d.Camera.Height,
		"camera.fps":                        d.Camera.FPS,
		"camera.process_width":              d.Camera.ProcessWidth,
		"camera.process_height":             d.Camera.ProcessHeight,
		"detector.max_hands":                d.Detector.MaxHands,
		"detector.min_detection_confidence": d.Detector.MinDetectionConfidence,
		"detector.min_tracking_confidence":  d.Detector.MinTrackingConfidence,
		"detector.script_path":              d.Detector.ScriptPath,
		"detector.python_path":              d.Detector.PythonPath,
		"classifier.timeout":                d.Classifier.Timeout,
		"classifier.tolerance":              d.Classifier.Tolerance,
		"interaction.delete_hold_time":      d.Interaction.DeleteHoldTime,
		"interaction.word_cooldown":         d.Interaction.WordCooldown,
		"interaction.cursor_blink_time":     d.Interaction.CursorBlinkTime,
		"interaction.delete_symbol":         d.Interaction.DeleteSymbol,
		"interaction.calculator_alphabet":   d.Interaction.CalculatorAlphabet,
		"interaction.start_mode":            d.Interaction.StartMode,
		"speech.enabled":                    d.Speech.Enabled,
		"speech.command":                    d.Speech.Command,
		"speech.rate":                       d.Speech.Rate,
		"speech.rate_flag":                  d.Speech.RateFlag,
		"speech.timeout":                    d.Speech.Timeout,
		"speech.queue_size":                 d.Speech.QueueSize,
		"server.addr":                       d.Server.Addr,
		"server.static_dir":                 d.Server.StaticDir,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func describe(file string) string {
	if file == "" {
		return "handspeak.yaml"
	}
	return file
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

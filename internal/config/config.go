// Package config loads and validates application settings.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayusman/handspeak/internal/capture"
	"github.com/ayusman/handspeak/internal/classifier"
	"github.com/ayusman/handspeak/internal/detector"
	"github.com/ayusman/handspeak/internal/interaction"
	"github.com/ayusman/handspeak/internal/speech"
	"github.com/ayusman/handspeak/internal/symbol"
)

const (
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultAddr       = "127.0.0.1:8080"
	DefaultDataDir    = "~/.handspeak"
	DefaultClassifyTO = 200 * time.Millisecond
)

// Config is the full application configuration.
type Config struct {
	LogLevel   string `mapstructure:"log_level"`
	LogFormat  string `mapstructure:"log_format"`
	DataDir    string `mapstructure:"data_dir"`
	LabelsFile string `mapstructure:"labels_file"`
	Tray       bool   `mapstructure:"tray"`

	Camera      CameraConfig      `mapstructure:"camera"`
	Detector    DetectorConfig    `mapstructure:"detector"`
	Classifier  ClassifierConfig  `mapstructure:"classifier"`
	Interaction InteractionConfig `mapstructure:"interaction"`
	Speech      SpeechConfig      `mapstructure:"speech"`
	Server      ServerConfig      `mapstructure:"server"`
}

type CameraConfig struct {
	Device        int `mapstructure:"device"`
	Width         int `mapstructure:"width"`
	Height        int `mapstructure:"height"`
	FPS           int `mapstructure:"fps"`
	ProcessWidth  int `mapstructure:"process_width"`
	ProcessHeight int `mapstructure:"process_height"`
}

type DetectorConfig struct {
	MaxHands               int     `mapstructure:"max_hands"`
	MinDetectionConfidence float64 `mapstructure:"min_detection_confidence"`
	MinTrackingConfidence  float64 `mapstructure:"min_tracking_confidence"`
	ScriptPath             string  `mapstructure:"script_path"`
	PythonPath             string  `mapstructure:"python_path"`
}

type ClassifierConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Tolerance float64       `mapstructure:"tolerance"`
}

type InteractionConfig struct {
	DeleteHoldTime     time.Duration `mapstructure:"delete_hold_time"`
	WordCooldown       time.Duration `mapstructure:"word_cooldown"`
	CursorBlinkTime    time.Duration `mapstructure:"cursor_blink_time"`
	DeleteSymbol       string        `mapstructure:"delete_symbol"`
	// CalculatorAlphabet narrows the characters accepted in calculator
	// mode. It must be a subset of symbol.DefaultCalculatorAlphabet.
	CalculatorAlphabet string        `mapstructure:"calculator_alphabet"`
	StartMode          string        `mapstructure:"start_mode"`
}

type SpeechConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Command   string        `mapstructure:"command"`
	Rate      int           `mapstructure:"rate"`
	RateFlag  string        `mapstructure:"rate_flag"`
	Timeout   time.Duration `mapstructure:"timeout"`
	QueueSize int           `mapstructure:"queue_size"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	StaticDir string `mapstructure:"static_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	sp := speech.DefaultConfig()
	det := detector.DefaultConfig()
	return Config{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		DataDir:   DefaultDataDir,
		Camera: CameraConfig{
			Width:         capture.DefaultWidth,
			Height:        capture.DefaultHeight,
			FPS:           capture.DefaultFPS,
			ProcessWidth:  capture.DefaultProcessWidth,
			ProcessHeight: capture.DefaultProcessHeight,
		},
		Detector: DetectorConfig{
			MaxHands:               det.MaxHands,
			MinDetectionConfidence: det.MinConfidence,
			MinTrackingConfidence:  det.MinTrackingConf,
		},
		Classifier: ClassifierConfig{
			Timeout:   DefaultClassifyTO,
			Tolerance: classifier.DefaultTolerance,
		},
		Interaction: InteractionConfig{
			DeleteHoldTime:     interaction.DefaultDeleteHoldTime,
			WordCooldown:       interaction.DefaultWordCooldown,
			CursorBlinkTime:    interaction.DefaultCursorBlinkTime,
			DeleteSymbol:       symbol.DefaultDelete,
			CalculatorAlphabet: symbol.DefaultCalculatorAlphabet,
			StartMode:          symbol.ModeSentence.String(),
		},
		Speech: SpeechConfig{
			Enabled:   true,
			Command:   sp.Command,
			Rate:      sp.Rate,
			RateFlag:  sp.RateFlag,
			Timeout:   sp.Timeout,
			QueueSize: speech.DefaultQueueSize,
		},
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
	}
}

// Validate applies defaults to empty fields and rejects out-of-range values.
func (c *Config) Validate() error {
	def := Default()

	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}

	if c.Camera.Device < 0 {
		return fmt.Errorf("config: camera.device must be >= 0, got %d", c.Camera.Device)
	}
	if c.Camera.FPS <= 0 {
		c.Camera.FPS = def.Camera.FPS
	}
	if c.Camera.ProcessWidth < 0 || c.Camera.ProcessHeight < 0 {
		return fmt.Errorf("config: camera process size must be >= 0")
	}

	if c.Detector.MaxHands <= 0 {
		c.Detector.MaxHands = def.Detector.MaxHands
	}
	if err := checkUnit("detector.min_detection_confidence", c.Detector.MinDetectionConfidence); err != nil {
		return err
	}
	if err := checkUnit("detector.min_tracking_confidence", c.Detector.MinTrackingConfidence); err != nil {
		return err
	}

	if c.Classifier.Timeout < 0 {
		return fmt.Errorf("config: classifier.timeout must be >= 0, got %s", c.Classifier.Timeout)
	}
	if c.Classifier.Tolerance <= 0 {
		c.Classifier.Tolerance = def.Classifier.Tolerance
	}

	in := &c.Interaction
	for name, d := range map[string]time.Duration{
		"interaction.delete_hold_time":  in.DeleteHoldTime,
		"interaction.word_cooldown":     in.WordCooldown,
		"interaction.cursor_blink_time": in.CursorBlinkTime,
	} {
		if d < 0 {
			return fmt.Errorf("config: %s must be >= 0, got %s", name, d)
		}
	}
	if in.DeleteHoldTime == 0 {
		in.DeleteHoldTime = def.Interaction.DeleteHoldTime
	}
	if in.CursorBlinkTime == 0 {
		in.CursorBlinkTime = def.Interaction.CursorBlinkTime
	}
	if in.DeleteSymbol == "" {
		in.DeleteSymbol = def.Interaction.DeleteSymbol
	}
	if in.CalculatorAlphabet == "" {
		in.CalculatorAlphabet = def.Interaction.CalculatorAlphabet
	}
	// Only the default characters can be built into an expression.
	for _, r := range in.CalculatorAlphabet {
		if !strings.ContainsRune(symbol.DefaultCalculatorAlphabet, r) {
			return fmt.Errorf("config: interaction.calculator_alphabet: %q is not one of %q", r, symbol.DefaultCalculatorAlphabet)
		}
	}
	if in.StartMode == "" {
		in.StartMode = def.Interaction.StartMode
	}
	if _, err := symbol.ParseMode(in.StartMode); err != nil {
		return fmt.Errorf("config: interaction.start_mode: %w", err)
	}

	if c.Speech.Enabled && c.Speech.Command == "" {
		return fmt.Errorf("config: speech.command is required when speech is enabled")
	}
	if c.Speech.Timeout < 0 {
		return fmt.Errorf("config: speech.timeout must be >= 0, got %s", c.Speech.Timeout)
	}
	if c.Speech.QueueSize <= 0 {
		c.Speech.QueueSize = def.Speech.QueueSize
	}

	return nil
}

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("config: %s must be within [0, 1], got %g", name, v)
	}
	return nil
}

// DatabasePath returns the sample database location under DataDir.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "handspeak.db")
}

// CaptureOptions converts the camera section.
func (c Config) CaptureOptions() capture.Config {
	return capture.Config{
		DeviceID: c.Camera.Device,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		FPS:      c.Camera.FPS,
	}
}

// DetectorOptions converts the detector section.
func (c Config) DetectorOptions() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinDetectionConfidence,
		MinTrackingConf: c.Detector.MinTrackingConfidence,
		ScriptPath:      c.Detector.ScriptPath,
		PythonPath:      c.Detector.PythonPath,
	}
}

// MachineOptions converts the interaction section. Validate must have
// succeeded.
func (c Config) MachineOptions() interaction.Options {
	mode, _ := symbol.ParseMode(c.Interaction.StartMode)
	return interaction.Options{
		DeleteHoldTime:  c.Interaction.DeleteHoldTime,
		WordCooldown:    c.Interaction.WordCooldown,
		CursorBlinkTime: c.Interaction.CursorBlinkTime,
		DeleteSymbol:    c.Interaction.DeleteSymbol,
		Mode:            mode,
	}
}

// SpeechOptions converts the speech section.
func (c Config) SpeechOptions() speech.Config {
	return speech.Config{
		Command:  c.Speech.Command,
		Rate:     c.Speech.Rate,
		RateFlag: c.Speech.RateFlag,
		Timeout:  c.Speech.Timeout,
	}
}

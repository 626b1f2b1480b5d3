// Package speech speaks accepted sentence tokens without blocking the
// recognition pipeline.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Speaker says one utterance.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Config configures a CommandSpeaker.
type Config struct {
	// Command is the TTS command line; the utterance is appended after a
	// "--" separator as the last argument.
	Command string
	// Rate is passed with RateFlag when positive.
	Rate     int
	RateFlag string
	// Timeout bounds one utterance.
	Timeout time.Duration
}

// DefaultConfig returns the espeak configuration at 160 words per minute.
func DefaultConfig() Config {
	return Config{
		Command:  "espeak",
		Rate:     160,
		RateFlag: "-s",
		Timeout:  10 * time.Second,
	}
}

// CommandSpeaker speaks by running an external TTS program.
type CommandSpeaker struct {
	name    string
	args    []string
	timeout time.Duration
}

// NewCommandSpeaker creates a speaker from cfg.
func NewCommandSpeaker(cfg Config) (*CommandSpeaker, error) {
	fields := strings.Fields(cfg.Command)
	if len(fields) == 0 {
		return nil, errors.New("speech command is empty")
	}

	args := append([]string(nil), fields[1:]...)
	if cfg.Rate > 0 && cfg.RateFlag != "" {
		args = append(args, cfg.RateFlag, strconv.Itoa(cfg.Rate))
	}

	return &CommandSpeaker{name: fields[0], args: args, timeout: cfg.Timeout}, nil
}

// Speak runs the TTS command for text and waits for it to finish.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// "--" keeps tokens such as "-" from being read as options.
	args := append(append([]string(nil), s.args...), "--", text)
	cmd := exec.CommandContext(ctx, s.name, args...)

	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("speech timeout after %s", s.timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("speech command failed: %w, stderr: %s", err, msg)
		}
		return fmt.Errorf("speech command failed: %w", err)
	}
	return nil
}

// Package log writes structured diagnostics and a plain-text transcript
// history to per-user log files. All helpers are safe to call before
// Init; they silently drop output until logging is ready, so library
// code never has to care whether the files exist yet.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcriptFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: PANOKEET_LOG_PATH environment variable
	envPath := os.Getenv("PANOKEET_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcriptPath := filepath.Join(dir, "transcript_log.txt")
	transcriptFile, err = os.OpenFile(transcriptPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcriptFile != nil {
		transcriptFile.Close()
		transcriptFile = nil
	}
	logReady = false
}

func Debugf(format string, args ...any) {
	if logReady {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Transition records a session state change and what drove it.
func Transition(from, to, trigger string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("from", from).
		Str("to", to).
		Str("trigger", trigger).
		Msg("transition")
}

// PollFailure records a single failed backend poll. These come in
// bursts whenever the backend restarts, so they log at debug level;
// the escalation entry is the interesting one.
func PollFailure(loop string, err error) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Str("loop", loop).
		Err(err).
		Msg("poll_failure")
}

// Escalation records the failure monitor crossing its threshold.
func Escalation(count int, msg string) {
	if !logReady {
		return
	}
	diagLog.Error().
		Int("consecutive_failures", count).
		Msg(msg)
}

// SavedTranscript records a successful save with its audio duration.
func SavedTranscript(duration float64, edited bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Float64("audio_s", duration).
		Bool("edited", edited).
		Msg("transcript_saved")
}

// SessionStart records process startup parameters.
func SessionStart(backendURL string, statusInterval, levelInterval time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("backend", backendURL).
		Dur("status_interval", statusInterval).
		Dur("level_interval", levelInterval).
		Msg("session_start")
}

// SessionEnd records process shutdown with the number of transcripts
// saved this run.
func SessionEnd(saved int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("saved", saved).
		Msg("session_end")
}

// TranscriptText appends the saved transcript text to the plain-text
// history file, separate from diagnostics so it is easy to grep.
func TranscriptText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcriptFile.WriteString(line)
}

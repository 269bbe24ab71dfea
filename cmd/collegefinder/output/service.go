package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// OutputManager writes the artefacts of one CLI run (search results and a
// run log) into a timestamped directory.
type OutputManager struct {
	baseDir   string
	timestamp string
	logFile   *os.File
	log       zerolog.Logger
}

// NewOutputManager creates <baseDir>/<timestamp>/ with a logs/app.log inside.
// The returned manager's logger writes to both console and the log file.
func NewOutputManager(baseDir string, console io.Writer, level zerolog.Level) (*OutputManager, error) {
	timestamp := time.Now().Format("20060102_150405")

	outputPath := filepath.Join(baseDir, timestamp)
	if err := os.MkdirAll(outputPath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logsDir := filepath.Join(outputPath, "logs")
	if err := os.MkdirAll(logsDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	logFile, err := os.Create(filepath.Join(logsDir, "app.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	consoleWriter := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = console
	})
	multiWriter := zerolog.MultiLevelWriter(consoleWriter, logFile)

	combinedLogger := zerolog.New(multiWriter).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()

	return &OutputManager{
		baseDir:   outputPath,
		timestamp: timestamp,
		logFile:   logFile,
		log:       combinedLogger,
	}, nil
}

// WriteToJSON writes data to <prefix>_<timestamp>.json and returns its path.
func (om *OutputManager) WriteToJSON(data any, prefix string) (string, error) {
	filename := fmt.Sprintf("%s_%s.json", prefix, om.timestamp)
	outputPath := filepath.Join(om.baseDir, filename)

	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(data); err != nil {
		return "", fmt.Errorf("failed to encode data to JSON: %w", err)
	}

	om.log.Debug().
		Str("file", outputPath).
		Str("prefix", prefix).
		Msg("Wrote data to JSON file")

	return outputPath, nil
}

func (om *OutputManager) GetLogger() zerolog.Logger {
	return om.log
}

func (om *OutputManager) GetBaseDir() string {
	return om.baseDir
}

// Close flushes and closes the run log.
func (om *OutputManager) Close() error {
	return om.logFile.Close()
}

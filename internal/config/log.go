package config

import (
	"fmt"
	"log/slog"
	"strings"
)

type Log struct {
	Format      LogFormat  `env:"LOG_FORMAT" envDefault:"JSON"`
	Level       slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	AddSource   bool       `env:"LOG_ADD_SOURCE" envDefault:"true"`
	Output      LogOutput  `env:"LOG_OUTPUT" envDefault:"STDOUT"`
	ServiceName string     `env:"LOG_SERVICE_NAME" envDefault:"product-catalog"`
}

// LogFormat is JSON for machines or TEXT for humans.
type LogFormat uint8

const (
	LogFormatJSON LogFormat = iota
	LogFormatText
)

var logFormatNames = []string{"JSON", "TEXT"}

func (f LogFormat) String() string {
	return logFormatNames[f]
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *LogFormat) UnmarshalText(text []byte) error {
	i, err := parseEnum(logFormatNames, "log format", text)
	if err != nil {
		return err
	}
	*f = LogFormat(i)
	return nil
}

func (f LogFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

type LogOutput uint8

const (
	LogOutputStdout LogOutput = iota
	LogOutputStderr
)

var logOutputNames = []string{"STDOUT", "STDERR"}

func (o LogOutput) String() string {
	return logOutputNames[o]
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (o *LogOutput) UnmarshalText(text []byte) error {
	i, err := parseEnum(logOutputNames, "log output", text)
	if err != nil {
		return err
	}
	*o = LogOutput(i)
	return nil
}

func parseEnum(names []string, what string, text []byte) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, name := range names {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s: %q", what, text)
}

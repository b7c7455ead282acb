package logx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

type logEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Error     error
	Timestamp time.Time
}

type formatter interface {
	format(entry *logEntry) ([]byte, error)
}

// consoleFormatter renders human-readable, optionally colored lines.
type consoleFormatter struct {
	config *Config
}

const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

func levelColor(l Level) string {
	switch l {
	case LevelDebug:
		return colorGray
	case LevelInfo:
		return colorBlue
	case LevelWarn:
		return colorYellow
	default:
		return colorRed
	}
}

func (f *consoleFormatter) format(entry *logEntry) ([]byte, error) {
	var buf bytes.Buffer

	timeFormat := f.config.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	buf.WriteString(entry.Timestamp.Format(timeFormat))
	buf.WriteByte(' ')

	if f.config.EnableColors {
		fmt.Fprintf(&buf, "%s%-5s%s", levelColor(entry.Level), entry.Level, colorReset)
	} else {
		fmt.Fprintf(&buf, "%-5s", entry.Level)
	}

	buf.WriteByte(' ')
	buf.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, " %s=%v", k, entry.Fields[k])
		}
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// jsonFormatter renders one JSON object per line.
type jsonFormatter struct {
	config *Config
}

func (f *jsonFormatter) format(entry *logEntry) ([]byte, error) {
	timeFormat := f.config.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	data := map[string]interface{}{
		"level":     entry.Level.String(),
		"message":   entry.Message,
		"timestamp": entry.Timestamp.Format(timeFormat),
	}
	for k, v := range entry.Fields {
		data[k] = v
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

package bot

import (
	"fmt"
	"log/slog"
)

// slogLogger routes telego's own logging into slog
type slogLogger struct{}

func (slogLogger) Debugf(format string, args ...any) {
	slog.Debug("telego: " + fmt.Sprintf(format, args...))
}

func (slogLogger) Errorf(format string, args ...any) {
	slog.Error("telego: " + fmt.Sprintf(format, args...))
}

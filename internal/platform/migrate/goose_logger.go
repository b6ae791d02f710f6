package migrate

import (
	"fmt"
	"os"
	"strings"

	"log/slog"
)

// gooseSlogLogger adapts goose's printf-style logger onto slog.
type gooseSlogLogger struct {
	logger *slog.Logger
}

func (l gooseSlogLogger) Printf(format string, v ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Info(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
}

func (l gooseSlogLogger) Fatalf(format string, v ...any) {
	if l.logger != nil {
		l.logger.Error(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
	}
	os.Exit(1)
}

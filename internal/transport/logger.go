package transport

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// restyLogger routes resty's internal messages into zerolog.
type restyLogger struct {
	logger *zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Warn().Str("component", "transport").Msg(trim(format, v...))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Debug().Str("component", "transport").Msg(trim(format, v...))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Trace().Str("component", "transport").Msg(trim(format, v...))
}

func trim(format string, v ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}

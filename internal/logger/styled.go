package logger

import (
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"

	"github.com/brenthale/elassandra/internal/core/domain"
	"github.com/brenthale/elassandra/theme"
)

// StyledLogger wraps slog.Logger with theme-aware formatting helpers
// for the CLI's human-facing output.
type StyledLogger struct {
	logger *slog.Logger
	theme  *theme.Theme
}

func NewStyledLogger(logger *slog.Logger, theme *theme.Theme) *StyledLogger {
	return &StyledLogger{
		logger: logger,
		theme:  theme,
	}
}

func (sl *StyledLogger) Plain() *slog.Logger {
	return sl.logger
}

func (sl *StyledLogger) Debug(msg string, args ...any) {
	sl.logger.Debug(msg, args...)
}

func (sl *StyledLogger) Info(msg string, args ...any) {
	sl.logger.Info(msg, args...)
}

func (sl *StyledLogger) Warn(msg string, args ...any) {
	sl.logger.Warn(msg, args...)
}

func (sl *StyledLogger) Error(msg string, args ...any) {
	sl.logger.Error(msg, args...)
}

func (sl *StyledLogger) InfoWithNode(msg string, node string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, pterm.Style{sl.theme.Node}.Sprint(node))
	sl.logger.Info(styledMsg, args...)
}

func (sl *StyledLogger) InfoWithCount(msg string, count int, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, pterm.Style{sl.theme.Numbers}.Sprint("(", count, ")"))
	sl.logger.Info(styledMsg, args...)
}

// InfoNodeStatus renders one node's health with the status coloured by
// state.
func (sl *StyledLogger) InfoNodeStatus(msg string, node string, status domain.ConnectionStatus, args ...any) {
	statusColor := sl.theme.NodeAlive
	if status == domain.StatusDead {
		statusColor = sl.theme.NodeDead
	}
	styledMsg := fmt.Sprintf("%s %s is %s",
		msg,
		pterm.Style{sl.theme.Node}.Sprint(node),
		pterm.Style{statusColor}.Sprint(status.String()))
	sl.logger.Info(styledMsg, args...)
}

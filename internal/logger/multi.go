package logger

import "github.com/harrison/scone-ci/internal/models"

// RunLogger is implemented by every logger in this package.
type RunLogger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogRunStart(runID, workspace string, steps []models.Step)
	LogStepStart(index int, step models.Step)
	LogStepFinish(result models.StepResult)
	LogRunFinish(result models.RunResult)
}

// MultiLogger forwards every event to each of its loggers in order.
type MultiLogger struct {
	loggers []RunLogger
}

// NewMultiLogger creates a MultiLogger, dropping nil entries.
func NewMultiLogger(loggers ...RunLogger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Add appends a logger.
func (m *MultiLogger) Add(l RunLogger) {
	if l != nil {
		m.loggers = append(m.loggers, l)
	}
}

func (m *MultiLogger) LogTrace(message string) {
	for _, l := range m.loggers {
		l.LogTrace(message)
	}
}

func (m *MultiLogger) LogDebug(message string) {
	for _, l := range m.loggers {
		l.LogDebug(message)
	}
}

func (m *MultiLogger) LogInfo(message string) {
	for _, l := range m.loggers {
		l.LogInfo(message)
	}
}

func (m *MultiLogger) LogWarn(message string) {
	for _, l := range m.loggers {
		l.LogWarn(message)
	}
}

func (m *MultiLogger) LogError(message string) {
	for _, l := range m.loggers {
		l.LogError(message)
	}
}

func (m *MultiLogger) LogRunStart(runID, workspace string, steps []models.Step) {
	for _, l := range m.loggers {
		l.LogRunStart(runID, workspace, steps)
	}
}

func (m *MultiLogger) LogStepStart(index int, step models.Step) {
	for _, l := range m.loggers {
		l.LogStepStart(index, step)
	}
}

func (m *MultiLogger) LogStepFinish(result models.StepResult) {
	for _, l := range m.loggers {
		l.LogStepFinish(result)
	}
}

func (m *MultiLogger) LogRunFinish(result models.RunResult) {
	for _, l := range m.loggers {
		l.LogRunFinish(result)
	}
}

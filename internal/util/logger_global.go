package util

import (
	"sync"
)

var (
	globalLogger LoggerInterface = &Logger{state: &loggerState{level: LevelInfo}}
	loggerMu     sync.RWMutex
)

// SetLogger installs a logger as the global instance
func SetLogger(logger LoggerInterface) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	globalLogger = logger
}

// GetLogger returns the global logger
func GetLogger() LoggerInterface {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return globalLogger
}

// Component returns the global logger tagged with a component name
func Component(name string) LoggerInterface {
	return GetLogger().WithComponent(name)
}

// LogInfo convenience functions for logging
func LogInfo(msg string, fields ...Field) {
	GetLogger().Info(msg, fields...)
}

func LogInfof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

func LogDebug(msg string, fields ...Field) {
	GetLogger().Debug(msg, fields...)
}

func LogDebugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

func LogWarn(msg string, fields ...Field) {
	GetLogger().Warn(msg, fields...)
}

func LogWarnf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}

func LogError(msg string, fields ...Field) {
	GetLogger().Error(msg, fields...)
}

func LogErrorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}

package logger

import (
	"fmt"

	"go.uber.org/zap"
)

var log *zap.Logger

var serviceName = "signal_bridge"

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName
	return oldName
}

// Init builds the global logger. debug switches to the development config.
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	log = l
	zap.ReplaceGlobals(l)
	return nil
}

func get() *zap.Logger {
	if log == nil {
		// tests and tools that never call Init still get output
		log, _ = zap.NewDevelopment()
	}
	return log.With(zap.String("service", serviceName))
}

func Info(format string, args ...interface{}) {
	get().Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	get().Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	get().Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	get().Fatal(fmt.Sprintf(format, args...))
}

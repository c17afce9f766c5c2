package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// flogger is the slice of a logger the workers use
type flogger interface {
	Printf(format string, args ...interface{})
	Println(args ...interface{})
}

// ThreadLogger prefixes everything a worker logs with its name
type ThreadLogger struct {
	name string
}

// Printf for flogger
func (tl *ThreadLogger) Printf(format string, args ...interface{}) {
	zap.S().Named(tl.name).Infof(format, args...)
}

// Println for flogger
func (tl *ThreadLogger) Println(args ...interface{}) {
	zap.S().Named(tl.name).Info(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

type logCloser struct {
	logger *zap.Logger
	file   *lumberjack.Logger
	undo   func()
}

func (lc *logCloser) Close() error {
	lc.undo()
	// sync on a console fd fails on some systems, don't care
	lc.logger.Sync()
	return lc.file.Close()
}

// setupLogging points zap (and the standard log package) at a rotated log
// file, and at stderr as well when console is set
func setupLogging(settings configSettings, console bool) (io.Closer, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(settings.GetString(sLogLevel))); err != nil {
		return nil, errors.Wrapf(err, "bad %s", sLogLevel)
	}
	if settings.GetBool(sDebug) {
		level = zapcore.DebugLevel
	}

	file := &lumberjack.Logger{
		Filename:   settings.GetString(sLogFile),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level),
	}
	if console {
		conCfg := zap.NewDevelopmentEncoderConfig()
		conCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(conCfg), zapcore.Lock(os.Stderr), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	undoGlobals := zap.ReplaceGlobals(logger)
	undoStdLog := zap.RedirectStdLog(logger)

	return &logCloser{
		logger: logger,
		file:   file,
		undo: func() {
			undoStdLog()
			undoGlobals()
		},
	}, nil
}

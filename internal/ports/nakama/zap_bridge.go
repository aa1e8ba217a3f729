package nakama

import (
	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// runtimeCore is a zapcore.Core that writes through Nakama's runtime.Logger, so code
// logging with zap inside the match handler ends up in the server log.
type runtimeCore struct {
	zapcore.LevelEnabler
	logger runtime.Logger
	fields []zapcore.Field
}

func newRuntimeCore(logger runtime.Logger, level zapcore.LevelEnabler) zapcore.Core {
	return &runtimeCore{LevelEnabler: level, logger: logger}
}

// newZapLogger returns a zap logger backed by logger.
func newZapLogger(logger runtime.Logger) *zap.Logger {
	return zap.New(newRuntimeCore(logger, zapcore.DebugLevel))
}

func (c *runtimeCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *runtimeCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *runtimeCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	logger := c.logger
	if len(enc.Fields) > 0 {
		logger = logger.WithFields(enc.Fields)
	}
	switch {
	case ent.Level >= zapcore.ErrorLevel:
		logger.Error("%s", ent.Message)
	case ent.Level == zapcore.WarnLevel:
		logger.Warn("%s", ent.Message)
	case ent.Level == zapcore.InfoLevel:
		logger.Info("%s", ent.Message)
	default:
		logger.Debug("%s", ent.Message)
	}
	return nil
}

func (c *runtimeCore) Sync() error {
	return nil
}

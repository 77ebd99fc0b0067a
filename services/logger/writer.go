package logsvc

import (
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trezcool/shule/core"
)

// NewWriter returns stdout, teed into a rotating file when conf.Log.File is set.
func NewWriter(conf *core.Config) io.Writer {
	if conf.Log.File == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   conf.Log.File,
		MaxSize:    conf.Log.MaxSizeMB,
		MaxBackups: conf.Log.MaxBackups,
		MaxAge:     conf.Log.MaxAgeDays,
		Compress:   true,
	})
}

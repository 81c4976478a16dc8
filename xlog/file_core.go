package xlog

import (
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap/zapcore"
)

var _ xLogCore = (*fileCore)(nil)

// fileCore shares the console core encoding, only the sink differs.
type fileCore struct {
	consoleCore
	log *singleLog
}

type FileCoreConfig struct {
	FilePath string `json:"filePath" yaml:"filePath" mapstructure:"file_path"`
	Filename string `json:"filename" yaml:"filename" mapstructure:"filename"`
}

// FileCoreConfigFromPath splits a log file path into its directory and name.
func FileCoreConfigFromPath(path string) *FileCoreConfig {
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	return &FileCoreConfig{
		FilePath: dir,
		Filename: name,
	}
}

func newFileCore(cfg *FileCoreConfig) xLogCoreConstructor {
	return func(
		lvlEnabler zapcore.LevelEnabler,
		encoder logEncoderType,
		lvlEnc zapcore.LevelEncoder,
		tsEnc zapcore.TimeEncoder,
	) xLogCore {
		if cfg == nil {
			cfg = &FileCoreConfig{
				Filename: filepath.Base(os.Args[0]) + "_xlog.log",
				FilePath: os.TempDir(),
			}
		}
		log := &singleLog{
			filePath: cfg.FilePath,
			filename: cfg.Filename,
		}
		cc := &fileCore{
			consoleCore: consoleCore{
				lvlEnabler: lvlEnabler,
				lvlEnc:     lvlEnc,
				tsEnc:      tsEnc,
				ws:         zapcore.Lock(log),
				enc:        getEncoderByType(encoder),
			},
			log: log,
		}
		cc.core = zapcore.NewCore(cc.enc(consoleCoreEncoderCfg(lvlEnc, tsEnc)), cc.ws, cc.lvlEnabler)
		runtime.SetFinalizer(cc, func(cc *fileCore) {
			_ = cc.log.Close()
		})
		return cc
	}
}

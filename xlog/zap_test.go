package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	mrand "math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

func TestLogLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.String())
	require.Equal(t, "INFO", LogLevelInfo.String())
	require.Equal(t, "WARN", LogLevelWarn.String())
	require.Equal(t, "ERROR", LogLevelError.String())
	require.Equal(t, zapcore.DebugLevel, LogLevelDebug.zapLevel())
	require.Equal(t, zapcore.InfoLevel, LogLevelInfo.zapLevel())
	require.Equal(t, zapcore.WarnLevel, LogLevelWarn.zapLevel())
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())
}

func TestParseLogLevelAndEncoder(t *testing.T) {
	lvl, err := ParseLogLevel(" warn ")
	require.NoError(t, err)
	require.Equal(t, LogLevelWarn, lvl)
	_, err = ParseLogLevel("trace")
	require.Error(t, err)
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault("trace"))
	require.Equal(t, zapcore.DebugLevel, getLogLevelOrDefault(""))
	require.Equal(t, zapcore.ErrorLevel, getLogLevelOrDefault("error"))

	enc, err := ParseLogEncoder("JSON")
	require.NoError(t, err)
	require.Equal(t, JSON, enc)
	enc, err = ParseLogEncoder("text")
	require.NoError(t, err)
	require.Equal(t, PlainText, enc)
	_, err = ParseLogEncoder("xml")
	require.Error(t, err)

	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
	require.Panics(t, func() {
		NewXLogger(WithXLoggerWriter(nil))
	})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	lines := make([]map[string]any, 0, 8)
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if len(raw) == 0 {
			continue
		}
		line := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(raw), &line), raw)
		lines = append(lines, line)
	}
	return lines
}

func TestXLogger_Zap_JSONFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewXLogger(
		WithXLoggerLevel(LogLevelInfo),
		WithXLoggerEncoder(JSON),
		WithXLoggerWriter(buf),
		WithXLoggerContextFieldExtract("session", "sessionID"),
		WithXLoggerContextFieldExtract("secret", ContextKeyMapToOmitempty),
		WithXLoggerContextFieldExtract("cmd"),
	)
	require.Equal(t, zapcore.InfoLevel.String(), logger.Level())
	require.NotNil(t, logger.zap())

	ctx := context.WithValue(context.Background(), ContextKey("session"), "s-1")
	ctx = context.WithValue(ctx, ContextKey("secret"), "hidden")

	logger.Debug("dropped")
	logger.InfoContext(ctx, "hello", zap.Int("n", 1))
	logger.Named("repl").Warn("named")
	logger.Error(errors.New("plain"), "failed")
	es := infra.WrapErrorStackWithMessage(errors.New("cause"), "wrapped")
	logger.ErrorStack(es, "stacked")
	logger.ErrorStackContext(ctx, errors.New("not a stack"), "stacked ctx")
	require.NoError(t, logger.Sync())

	lines := decodeLines(t, buf)
	require.Len(t, lines, 5)

	require.Equal(t, "hello", lines[0]["msg"])
	require.Equal(t, "INFO", lines[0]["lvl"])
	require.Equal(t, "s-1", lines[0]["sessionID"])
	require.Equal(t, "nil", lines[0]["cmd"])
	require.NotContains(t, lines[0], "secret")
	require.NotContains(t, lines[0], "hidden")
	require.EqualValues(t, 1, lines[0]["n"])
	require.Contains(t, lines[0]["callAt"], "zap_test.go")

	require.Equal(t, "repl", lines[1]["component"])
	require.Equal(t, "plain", lines[2]["error"])

	require.Equal(t, "wrapped", lines[3]["error"])
	require.Contains(t, lines[3]["errorAt"], "zap_test.go")
	require.Equal(t, []any{"cause"}, lines[3]["errorStack"])

	require.Equal(t, "not a stack", lines[4]["error"])
	require.Equal(t, "s-1", lines[4]["sessionID"])
}

func TestXLogger_Zap_AllAPIs(t *testing.T) {
	testcases := []struct {
		name          string
		encoder       logEncoderType
		defaultLogger bool
		ctxM          map[string]string
	}{
		{
			name:    "console json",
			encoder: JSON,
			ctxM: map[string]string{
				"traceId": "TraceID",
				"service": "Svc",
			},
		},
		{
			name:    "console plaintext",
			encoder: PlainText,
			ctxM: map[string]string{
				"traceId": "traceID",
				"service": "svc",
				"abc":     "",
			},
		},
		{
			name:          "console default json",
			defaultLogger: true,
		},
		{
			name:          "console default json2",
			defaultLogger: true,
			ctxM: map[string]string{
				"traceId": "",
				"service": "",
				"":        "",
				"abc":     "_",
			},
		},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			var opts []XLoggerOption
			if !tc.defaultLogger {
				opts = append(opts,
					WithXLoggerLevel(LogLevelDebug),
					WithXLoggerEncoder(tc.encoder),
					WithXLoggerWriter(buf),
					WithXLoggerLevelEncoder(nil),
					WithXLoggerTimeEncoder(nil),
				)
			}
			for k, v := range tc.ctxM {
				opts = append(opts, WithXLoggerContextFieldExtract(k, v))
			}
			logger := NewXLogger(opts...)

			ctx := context.WithValue(context.TODO(), ContextKey("traceId"), "1234567890")
			ctx = context.WithValue(ctx, ContextKey("service"), "xtree")

			logger.Debug("debug message 1")
			logger.DebugContext(ctx, "debug message 2")
			logger.Info("info message 1")
			logger.InfoContext(ctx, "info message 2")
			logger.Warn("warn message 1")
			logger.WarnContext(ctx, "warn message 2")
			err1 := infra.WrapErrorStack(errors.New("error 1"))
			logger.Error(err1, "error message 1")
			logger.ErrorContext(ctx, err1, "error message 2")
			logger.ErrorStack(err1, "error message 1")
			logger.ErrorStackContext(ctx, err1, "error message 2")

			logger.IncreaseLogLevel(zapcore.WarnLevel)
			require.Equal(t, zapcore.WarnLevel.String(), logger.Level())
			logger.Logf(getLogLevelOrDefault(""), "unprintable debug message 3")
			logger.Logf(getLogLevelOrDefault(LogLevelInfo.String()), "unprintable info message 5")
			logger.Logf(getLogLevelOrDefault(LogLevelWarn.String()), "printable warn message 3")
			logger.ErrorStackf(err1, "error message 4")

			logger.IncreaseLogLevel(zapcore.DebugLevel)
			require.Equal(t, zapcore.DebugLevel.String(), logger.Level())
			logger.Logf(getLogLevelOrDefault(LogLevelDebug.String()), "dynamic printable debug message 5")
			logger.ErrorStackf(nil, "error message 5")

			if err := logger.Sync(); err != nil {
				t.Log(err)
			}
			if !tc.defaultLogger {
				require.NotContains(t, buf.String(), "unprintable")
				require.Contains(t, buf.String(), "dynamic printable debug message 5")
				require.Equal(t, 14, strings.Count(buf.String(), "\n"))
			}
		})
	}
}

func TestXLogger_Zap_DataRace(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewXLogger(WithXLoggerWriter(buf))
	lvls := []zapcore.Level{
		zapcore.DebugLevel,
		zapcore.InfoLevel,
		zapcore.WarnLevel,
		zapcore.ErrorLevel,
	}
	n := int32(len(lvls))
	var wg sync.WaitGroup
	total := 10
	wg.Add(total)
	for i := 0; i < total; i++ {
		go func(i int) {
			for j := 0; j < 100; j++ {
				rng := mrand.Int31n(n)
				if i*total+j == 666 {
					logger.IncreaseLogLevel(lvls[rng])
				}
				logger.Logf(lvls[rng], "message i: %d; j: %d", i, j)
			}
			wg.Done()
		}(i)
	}
	wg.Wait()
	_ = logger.Sync()
}

func BenchmarkXLogger_Zap(b *testing.B) {
	logger := NewXLogger(WithXLoggerWriter(&bytes.Buffer{}))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("message")
	}
	b.ReportAllocs()
}

package commands

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

var ErrInvalidNumber = errors.New("please enter a valid number")

const (
	metricsInterval = 10 * time.Second
	metricsTimeout  = 5 * time.Second
	statsName       = "cli"
)

// parseKey accepts what strconv accepts for a float64 except NaN, which
// has no order.
func parseKey(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, ErrInvalidNumber
	}
	key, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(key) {
		return 0, ErrInvalidNumber
	}
	return key, nil
}

// parseKeys drops the empty items of a comma separated flag value.
func parseKeys(raws []string) ([]float64, error) {
	raws = lo.Compact(lo.Map(raws, func(raw string, _ int) string {
		return strings.TrimSpace(raw)
	}))
	keys := make([]float64, 0, len(raws))
	for _, raw := range raws {
		key, err := parseKey(raw)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func formatKey(key float64) string {
	return cast.ToString(key)
}

// session owns the tree of one command run.
type session struct {
	cfg      *Config
	logger   xlog.XLogger
	tree     tree.RBTree[float64]
	shutdown func(ctx context.Context) error
}

func newSession(cmd *cobra.Command, component string) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logOpts := append([]xlog.XLoggerOption{
		xlog.WithXLoggerContextFieldExtract(ctxKeyOp, "op"),
	}, cfg.logOpts...)
	if len(cfg.LogFile) > 0 {
		logOpts = append(logOpts, xlog.WithXLoggerFileWriter(xlog.FileCoreConfigFromPath(cfg.LogFile)))
	} else {
		logOpts = append(logOpts, xlog.WithXLoggerWriter(cmd.ErrOrStderr()))
	}
	s := &session{
		cfg:    cfg,
		logger: xlog.NewXLogger(logOpts...).Named(component),
	}

	opts := []tree.RBTreeOpt[float64]{}
	if cfg.Desc {
		opts = append(opts, tree.WithRBTreeDesc[float64]())
	}
	if cfg.Metrics {
		if s.shutdown, err = observability.NewConsoleMetricsExporter(
			cmd.ErrOrStderr(),
			metricsInterval,
			metricsTimeout,
		); err != nil {
			return nil, err
		}
		opts = append(opts, tree.WithRBTreeStats[float64](statsName))
	}
	s.tree = tree.NewRBTree[float64](opts...)
	s.logger.Debug("session started",
		zap.String("order", cfg.Order),
		zap.String("output", cfg.Output),
		zap.String("logFile", cfg.LogFile),
		zap.Bool("desc", cfg.Desc),
		zap.Bool("metrics", cfg.Metrics),
	)
	return s, nil
}

const ctxKeyOp = "op"

func opContext(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, xlog.ContextKey(ctxKeyOp), op)
}

func (s *session) insert(ctx context.Context, key float64) error {
	ctx = opContext(ctx, "insert")
	if err := s.tree.Insert(key); err != nil {
		s.logger.WarnContext(ctx, "insert rejected", zap.Float64("key", key), zap.Error(err))
		return err
	}
	s.logger.DebugContext(ctx, "inserted", zap.Float64("key", key), zap.Int64("len", s.tree.Len()))
	return nil
}

func (s *session) remove(ctx context.Context, key float64) error {
	ctx = opContext(ctx, "delete")
	if err := s.tree.Remove(key); err != nil {
		s.logger.WarnContext(ctx, "delete rejected", zap.Float64("key", key), zap.Error(err))
		return err
	}
	s.logger.DebugContext(ctx, "deleted", zap.Float64("key", key), zap.Int64("len", s.tree.Len()))
	return nil
}

func (s *session) search(ctx context.Context, key float64) (tree.RBNode[float64], error) {
	ctx = opContext(ctx, "search")
	node, err := s.tree.Search(key)
	if err != nil {
		s.logger.InfoContext(ctx, "search missed", zap.Float64("key", key))
		return nil, err
	}
	s.logger.DebugContext(ctx, "search hit", zap.Float64("key", key), zap.Uint32("id", uint32(node.ID())))
	return node, nil
}

func (s *session) validate(ctx context.Context) error {
	if err := tree.Validate(s.tree); err != nil {
		s.logger.ErrorStackContext(opContext(ctx, "validate"), err, "rbtree invariants broken")
		return err
	}
	return nil
}

func (s *session) close(ctx context.Context) error {
	var err error
	if s.shutdown != nil {
		err = multierr.Append(err, s.shutdown(ctx))
	}
	s.tree.Release()
	_ = s.logger.Sync()
	return err
}

// message maps the tree errors to the interactive wording.
func message(err error) string {
	switch {
	case errors.Is(err, tree.ErrRBTreeDuplicateKey):
		return "duplicate value"
	case errors.Is(err, tree.ErrRBTreeNotFound):
		return "node not found"
	case errors.Is(err, ErrInvalidNumber):
		return ErrInvalidNumber.Error()
	default:
	}
	return err.Error()
}

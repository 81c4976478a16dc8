package tree

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	RBTreeStatsName = "xtree/rbtree"
)

var (
	insertedAttrs  = metric.WithAttributeSet(attribute.NewSet(attribute.String("rbtree.result", "inserted")))
	duplicateAttrs = metric.WithAttributeSet(attribute.NewSet(attribute.String("rbtree.result", "duplicate")))
	removedAttrs   = metric.WithAttributeSet(attribute.NewSet(attribute.String("rbtree.result", "removed")))
	notFoundAttrs  = metric.WithAttributeSet(attribute.NewSet(attribute.String("rbtree.result", "not_found")))
)

// rbTreeStats is nil safe, a tree without stats enabled holds a nil pointer.
type rbTreeStats struct {
	nodeCount     metric.Int64UpDownCounter
	insertCount   metric.Int64Counter
	removeCount   metric.Int64Counter
	rotationCount metric.Int64Counter
	insertDepth   metric.Int64Histogram
}

func (stats *rbTreeStats) RecordInsert(inserted bool, depth int) {
	if stats == nil {
		return
	}
	if !inserted {
		stats.insertCount.Add(context.Background(), 1, duplicateAttrs)
		return
	}
	stats.insertCount.Add(context.Background(), 1, insertedAttrs)
	stats.nodeCount.Add(context.Background(), 1)
	stats.insertDepth.Record(context.Background(), int64(depth))
}

func (stats *rbTreeStats) RecordRemove(removed bool) {
	if stats == nil {
		return
	}
	if !removed {
		stats.removeCount.Add(context.Background(), 1, notFoundAttrs)
		return
	}
	stats.removeCount.Add(context.Background(), 1, removedAttrs)
	stats.nodeCount.Add(context.Background(), -1)
}

func (stats *rbTreeStats) RecordRelease(count int64) {
	if stats == nil || count <= 0 {
		return
	}
	stats.nodeCount.Add(context.Background(), -count)
}

func (stats *rbTreeStats) IncreaseRotationCount() {
	if stats == nil {
		return
	}
	stats.rotationCount.Add(context.Background(), 1)
}

func newRBTreeStats(name string) *rbTreeStats {
	meterName := fmt.Sprintf("%s/%s", RBTreeStatsName, name)
	return &rbTreeStats{
		nodeCount: lo.Must[metric.Int64UpDownCounter](otel.Meter(meterName).
			Int64UpDownCounter(
				"rbtree.node.count",
				metric.WithDescription("The number of nodes in the rbtree."),
			),
		),
		insertCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"rbtree.insert.count",
				metric.WithDescription("The number of insert calls, by result."),
			),
		),
		removeCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"rbtree.remove.count",
				metric.WithDescription("The number of remove calls, by result."),
			),
		),
		rotationCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"rbtree.rotation.count",
				metric.WithDescription("The number of rotations done by rebalancing."),
			),
		),
		insertDepth: lo.Must[metric.Int64Histogram](otel.Meter(meterName).
			Int64Histogram(
				"rbtree.insert.depth",
				metric.WithDescription("The depth at which new keys are attached."),
				metric.WithExplicitBucketBoundaries(0, 1, 2, 4, 8, 16, 24, 32, 48, 64),
			),
		),
	}
}

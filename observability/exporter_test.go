package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"

	"github.com/benz9527/xtree/lib/tree"
)

func TestNewConsoleMetricsExporter(t *testing.T) {
	buf := &bytes.Buffer{}
	shutdown, err := NewConsoleMetricsExporter(buf, time.Hour, 5*time.Second, stdoutmetric.WithPrettyPrint())
	require.NoError(t, err)

	rbtree := tree.NewRBTree[int](tree.WithRBTreeStats[int]("exporter_test"))
	for i := 0; i < 16; i++ {
		require.NoError(t, rbtree.Insert(i))
	}
	require.NoError(t, rbtree.Remove(3))

	require.NoError(t, shutdown(context.Background()))
	out := buf.String()
	require.Contains(t, out, tree.RBTreeStatsName+"/exporter_test")
	require.Contains(t, out, "rbtree.node.count")
	require.Contains(t, out, "rbtree.rotation.count")
	require.Contains(t, out, "rbtree.insert.depth")
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xtree/lib/tree"
)

// visitRow is one node of the dump. The key is a string, so ±Inf survive
// the JSON encoding.
type visitRow struct {
	ID        uint32 `json:"id" yaml:"id"`
	Key       string `json:"key" yaml:"key"`
	Color     string `json:"color" yaml:"color"`
	Parent    uint32 `json:"parent" yaml:"parent"`
	Left      uint32 `json:"left" yaml:"left"`
	Right     uint32 `json:"right" yaml:"right"`
	Depth     int    `json:"depth" yaml:"depth"`
	Direction string `json:"direction" yaml:"direction"`
}

func collectRows(rbtree tree.RBTree[float64], order string) []visitRow {
	rows := make([]visitRow, 0, rbtree.Len())
	collect := func(visit tree.RBVisit[float64]) bool {
		rows = append(rows, visitRow{
			ID:        uint32(visit.ID),
			Key:       formatKey(visit.Key),
			Color:     visit.Color.String(),
			Parent:    uint32(visit.Parent),
			Left:      uint32(visit.Left),
			Right:     uint32(visit.Right),
			Depth:     visit.Depth,
			Direction: visit.Direction.String(),
		})
		return true
	}
	if order == OrderPre {
		rbtree.PreOrder(collect)
	} else {
		rbtree.LevelOrder(collect)
	}
	return rows
}

func nodeCell(id uint32) string {
	if id == uint32(tree.NilNodeID) {
		return "-"
	}
	return cast.ToString(id)
}

func dump(w io.Writer, rbtree tree.RBTree[float64], order, output string) error {
	rows := collectRows(rbtree, order)
	switch output {
	case OutputJSON:
		return json.NewEncoder(w).Encode(rows)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	default:
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"ID", "Key", "Color", "Parent", "Left", "Right", "Depth", "Direction"})
	for _, row := range rows {
		tbl.AppendRow(table.Row{
			row.ID,
			row.Key,
			row.Color,
			nodeCell(row.Parent),
			nodeCell(row.Left),
			nodeCell(row.Right),
			row.Depth,
			row.Direction,
		})
	}
	tbl.SetCaption("Total: %d nodes, height %d, black height %d",
		rbtree.Len(), rbtree.Height(), rbtree.BlackHeight())
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

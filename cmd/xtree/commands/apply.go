package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewApplyCommand() *cobra.Command {
	var inserts, deletes, searches []string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply inserts, then deletes, then searches and dump the tree",
		Example: `  xtree apply --insert 10,20,30,15,5,1 --delete 20 --search 15
  XTREE_OUTPUT=json xtree apply --insert 3,1,2 --order pre`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			insertKeys, err := parseKeys(inserts)
			if err != nil {
				return fmt.Errorf("--insert: %w", err)
			}
			deleteKeys, err := parseKeys(deletes)
			if err != nil {
				return fmt.Errorf("--delete: %w", err)
			}
			searchKeys, err := parseKeys(searches)
			if err != nil {
				return fmt.Errorf("--search: %w", err)
			}

			s, err := newSession(cmd, "apply")
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := s.close(cmd.Context()); err == nil {
					err = closeErr
				}
			}()

			out := cmd.OutOrStdout()
			for _, key := range insertKeys {
				if err := s.insert(cmd.Context(), key); err != nil {
					fmt.Fprintf(out, "insert %s: %s\n", formatKey(key), message(err))
				}
			}
			for _, key := range deleteKeys {
				if err := s.remove(cmd.Context(), key); err != nil {
					fmt.Fprintf(out, "delete %s: %s\n", formatKey(key), message(err))
				}
			}
			for _, key := range searchKeys {
				node, err := s.search(cmd.Context(), key)
				if err != nil {
					fmt.Fprintf(out, "search %s: %s\n", formatKey(key), message(err))
					continue
				}
				fmt.Fprintf(out, "search %s: found %s\n", formatKey(key), node.Color())
			}

			if err := s.validate(cmd.Context()); err != nil {
				return err
			}
			s.logger.Info("applied",
				zap.Int("inserts", len(insertKeys)),
				zap.Int("deletes", len(deleteKeys)),
				zap.Int("searches", len(searchKeys)),
				zap.Int64("len", s.tree.Len()),
			)
			return dump(out, s.tree, s.cfg.Order, s.cfg.Output)
		},
	}
	cmd.Flags().StringSliceVar(&inserts, "insert", nil, "comma separated keys to insert")
	cmd.Flags().StringSliceVar(&deletes, "delete", nil, "comma separated keys to delete")
	cmd.Flags().StringSliceVar(&searches, "search", nil, "comma separated keys to search")
	return cmd
}

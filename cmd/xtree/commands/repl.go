package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read insert, delete, search, show, validate and quit lines from stdin",
		Long: `Reads one command per line:
  insert <n>   insert a key, a present key prints "duplicate value"
  delete <n>   delete a key, a missing key prints "node not found"
  search <n>   search a key, a missing key prints "node not found"
  show         dump the tree in the configured order and output
  validate     check the red-black invariants
  quit         leave the session (EOF too)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			s, err := newSession(cmd, "repl")
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := s.close(cmd.Context()); err == nil {
					err = closeErr
				}
			}()
			return s.repl(cmd)
		},
	}
}

func (s *session) repl(cmd *cobra.Command) error {
	var (
		ctx     = cmd.Context()
		out     = cmd.OutOrStdout()
		scanner = bufio.NewScanner(cmd.InOrStdin())
		lines   = 0
	)
	for scanner.Scan() {
		lines++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		op := strings.ToLower(fields[0])
		switch op {
		case "quit", "exit":
			s.logger.Debug("repl quit", zap.Int("lines", lines))
			return nil
		case "show":
			if err := dump(out, s.tree, s.cfg.Order, s.cfg.Output); err != nil {
				return err
			}
			continue
		case "validate":
			if err := s.validate(ctx); err != nil {
				fmt.Fprintln(out, err.Error())
			} else {
				fmt.Fprintln(out, "ok")
			}
			continue
		case "insert", "delete", "search":
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
			continue
		}

		if len(fields) != 2 {
			fmt.Fprintln(out, ErrInvalidNumber.Error())
			continue
		}
		key, err := parseKey(fields[1])
		if err != nil {
			fmt.Fprintln(out, message(err))
			continue
		}

		switch op {
		case "insert":
			err = s.insert(ctx, key)
			if err == nil {
				fmt.Fprintf(out, "inserted %s\n", formatKey(key))
			}
		case "delete":
			err = s.remove(ctx, key)
			if err == nil {
				fmt.Fprintf(out, "deleted %s\n", formatKey(key))
			}
		case "search":
			node, searchErr := s.search(ctx, key)
			if err = searchErr; err == nil {
				fmt.Fprintf(out, "found %s %s\n", formatKey(node.Key()), node.Color())
			}
		}
		if err != nil {
			fmt.Fprintln(out, message(err))
		}
	}
	return scanner.Err()
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/kjk/flatstore/docstore"
)

// readArg returns the argument or, if it's "-", the content of stdin
func readArg(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	return io.ReadAll(cmd.InOrStdin())
}

func newFindCommand(opts *RootOptions) *cobra.Command {
	var limit int
	var indent bool
	cmd := &cobra.Command{
		Use:   "find <collection> [filter]",
		Short: "Print records matching a filter, one JSON object per line",
		Long: `Print records matching a filter, one JSON object per line.

The filter is "all" (the default) or a JSON object, e.g.
  {"name": "A"}      records with field name equal to "A"
  {"key": [0, 2]}    records with keys 0 and 2`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := docstore.All
			if len(args) > 1 {
				d, err := readArg(cmd, args[1])
				if err != nil {
					return err
				}
				if f, err = docstore.ParseFilter(d); err != nil {
					return err
				}
			}
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			res, err := db.Find(args[0], f)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				if res, err = docstore.Limit(res, limit); err != nil {
					return err
				}
			}
			w := cmd.OutOrStdout()
			for _, r := range res {
				d, err := r.MarshalJSON()
				if err != nil {
					return err
				}
				if indent {
					d = pretty.Pretty(d)
				} else {
					d = append(d, '\n')
				}
				if _, err = w.Write(d); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many records")
	cmd.Flags().BoolVar(&indent, "pretty", false, "indent records")
	return cmd
}

func newInsertCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <collection> <records>",
		Short: "Insert a JSON object or an array of objects (- reads stdin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readArg(cmd, args[1])
			if err != nil {
				return err
			}
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			n, err := db.InsertJSON(args[0], d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d\n", n)
			return nil
		},
	}
}

func newUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <collection> <update>",
		Short: `Update records, e.g. '[{"name":"A"},{"set":{"age":30}}]' (- reads stdin)`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readArg(cmd, args[1])
			if err != nil {
				return err
			}
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			n, err := db.UpdateJSON(args[0], d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d\n", n)
			return nil
		},
	}
}

func newDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <filter>",
		Short: `Delete records matching a filter ("all" deletes all)`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readArg(cmd, args[1])
			if err != nil {
				return err
			}
			f, err := docstore.ParseFilter(d)
			if err != nil {
				return err
			}
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			n, err := db.Delete(args[0], f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", n)
			return nil
		},
	}
}

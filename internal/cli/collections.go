package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/kjk/flatstore/u"
)

func newListCommand(opts *RootOptions) *cobra.Command {
	var meta bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			infos, err := db.List(meta)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, ci := range infos {
				if !meta {
					fmt.Fprintln(w, ci.Name)
					continue
				}
				created := "-"
				if ci.Created > 0 {
					created = time.Unix(ci.Created, 0).UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", ci.Name, created, u.FormatSize(ci.Size))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&meta, "meta", false, "show creation time and size")
	return cmd
}

func newInfoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <collection>",
		Short: "Show creation time and size of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			ci, err := db.Info(args[0])
			if err != nil {
				return err
			}
			d, err := json.Marshal(ci)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(pretty.Pretty(d))
			return err
		},
	}
}

func newDropCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <collection>",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			dropped, err := db.Drop(args[0])
			if err != nil {
				return err
			}
			if dropped {
				fmt.Fprintf(cmd.OutOrStdout(), "dropped '%s'\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "'%s' doesn't exist\n", args[0])
			}
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kjk/flatstore/docstore"
	"github.com/kjk/flatstore/minioutil"
	"github.com/kjk/flatstore/snapshot"
)

func (o *RootOptions) openMinio() (*minioutil.Client, error) {
	m, err := o.env()
	if err != nil {
		return nil, err
	}
	return minioutil.New(minioutil.ConfigFromEnv(m))
}

func newSnapshotCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Back up and restore all collections",
		Long: `Back up and restore all collections.

Snapshot files are compressed based on extension: .gz, .zst, .zstd or .br.
upload and download use S3_ACCESS, S3_SECRET, S3_BUCKET, S3_ENDPOINT
and S3_REGION settings.`,
	}

	type action struct {
		use   string
		short string
		fn    func(db *docstore.DB, path string) (int, error)
	}
	actions := []action{
		{"save <path>", "Save a snapshot to a file", snapshot.SaveFile},
		{"restore <path>", "Restore a snapshot from a file", snapshot.RestoreFile},
		{"upload <remote-path>", "Save a snapshot and upload it to S3", func(db *docstore.DB, path string) (int, error) {
			c, err := opts.openMinio()
			if err != nil {
				return 0, err
			}
			return snapshot.Upload(c, db, path)
		}},
		{"download <remote-path>", "Download a snapshot from S3 and restore it", func(db *docstore.DB, path string) (int, error) {
			c, err := opts.openMinio()
			if err != nil {
				return 0, err
			}
			return snapshot.Download(c, db, path)
		}},
	}
	for _, a := range actions {
		cmd.AddCommand(&cobra.Command{
			Use:   a.use,
			Short: a.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := opts.openDB()
				if err != nil {
					return err
				}
				n, err := a.fn(db, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d collections\n", cmd.Name(), n)
				return nil
			},
		})
	}
	return cmd
}

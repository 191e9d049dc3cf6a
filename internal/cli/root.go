package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kjk/flatstore/docstore"
	"github.com/kjk/flatstore/log"
	"github.com/kjk/flatstore/u"
)

// Exit codes of the flatstore command
const (
	ExitFailure         = 1
	ExitNotFound        = 2
	ExitInvalidArgument = 3
)

// ExitCode maps an error returned by a command to process exit code
func ExitCode(err error) int {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, docstore.ErrInvalidArgument), errors.Is(err, docstore.ErrReservedField):
		return ExitInvalidArgument
	}
	return ExitFailure
}

// RootOptions holds global flags for all commands
type RootOptions struct {
	EnvFile    string
	LogDir     string
	Dir        string
	Secret     string
	AutoCreate bool
	Verbose    bool
}

// env returns FLATSTORE_* and S3_* settings from the process environment,
// overridden by values from the .env file
func (o *RootOptions) env() (map[string]string, error) {
	m := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, "FLATSTORE_") || strings.HasPrefix(k, "S3_") {
			m[k] = v
		}
	}
	if o.EnvFile == "" {
		return m, nil
	}
	fromFile, err := u.ReadEnvFile(o.EnvFile)
	if err != nil {
		return nil, err
	}
	for k, v := range fromFile {
		m[k] = v
	}
	return m, nil
}

func (o *RootOptions) openDB() (*docstore.DB, error) {
	m, err := o.env()
	if err != nil {
		return nil, err
	}
	config, err := docstore.ConfigFromEnv(m)
	if err != nil {
		return nil, err
	}
	if o.Dir != "" {
		config.Dir = o.Dir
	}
	if o.Secret != "" {
		config.Secret = o.Secret
	}
	if o.AutoCreate {
		config.AutoCreate = true
	}
	return docstore.Open(config)
}

// logDir returns --log-dir, FLATSTORE_LOG_DIR or logs/ in the data
// directory, in that order. "" if none is known.
func (o *RootOptions) logDir(m map[string]string) (string, error) {
	if o.LogDir != "" {
		return o.LogDir, nil
	}
	if dir := m["FLATSTORE_LOG_DIR"]; dir != "" {
		return u.ExpandTildeInPath(dir)
	}
	dataDir := o.Dir
	if dataDir == "" {
		var err error
		if dataDir, err = u.ExpandTildeInPath(m["FLATSTORE_DIR"]); err != nil {
			return "", err
		}
	}
	if dataDir == "" {
		return "", nil
	}
	// List only picks regular files so a sub-directory is safe
	return filepath.Join(dataDir, "logs"), nil
}

// initLog sends log, errors and events to daily files
func (o *RootOptions) initLog() error {
	m, err := o.env()
	if err != nil {
		return err
	}
	dir, err := o.logDir(m)
	if err != nil || dir == "" {
		return err
	}
	// a previous command in the same process could have initialized it
	log.Close()
	log.Init(&log.Config{
		Dir:     dir,
		Verbose: o.Verbose,
	})
	return nil
}

// NewRootCommand creates the root command of the flatstore CLI
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "flatstore",
		Short: "Query and change collections of a flatstore directory",
		Long: `flatstore is a command-line client for a directory of flatstore collections.

Settings are read from FLATSTORE_* environment variables and from the file
given with --env. --dir and --secret override them.

Log, errors and events go to daily files in --log-dir, FLATSTORE_LOG_DIR
or logs/ in the data directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// diagnostics must not mix with command output
			log.Stdout = cmd.ErrOrStderr()
			log.Verbose = opts.Verbose
			return opts.initLog()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.EnvFile, "env", "", "path of .env file with FLATSTORE_* settings")
	flags.StringVar(&opts.Dir, "dir", "", "directory with collections")
	flags.StringVar(&opts.LogDir, "log-dir", "", "directory for log, errors and events files (default: logs in the data directory)")
	flags.StringVar(&opts.Secret, "secret", "", "secret used to derive collection file names")
	flags.BoolVar(&opts.AutoCreate, "auto-create", false, "create missing collections")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newInfoCommand(opts))
	cmd.AddCommand(newFindCommand(opts))
	cmd.AddCommand(newInsertCommand(opts))
	cmd.AddCommand(newUpdateCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))
	cmd.AddCommand(newDropCommand(opts))
	cmd.AddCommand(newSnapshotCommand(opts))

	return cmd
}

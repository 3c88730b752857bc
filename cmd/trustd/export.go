package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	trustd "github.com/iov-one/trustd/cmd/trustd/app"
	"github.com/iov-one/trustd/commands/server"
	"github.com/iov-one/trustd/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const flagOut = "out"

// exportCmd writes the whole committed state as JSON. The server must not be
// running as the database is opened exclusively.
func exportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export",
		Short: "Export all trusts and balances as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString(flagOut); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return errors.Wrap(err, "create output file")
				}
				defer f.Close()
				out = f
			}
			return export(viper.GetString(server.FlagHome), out)
		},
	}
	c.Flags().String(flagOut, "", "output file, stdout when empty")
	return c
}

func export(home string, out io.Writer) error {
	dbPath := filepath.Join(home, "trust.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return errors.Wrapf(errors.ErrNotFound, "no database in %s", home)
	}
	node, err := trustd.NewNode(trustd.Config{DBPath: dbPath})
	if err != nil {
		return err
	}
	defer node.Close()

	dump, err := node.Export()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}

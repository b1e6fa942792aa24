package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andreyvit/flatdoc"
)

func (c *CLI) dbCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Store and retrieve documents in a Bolt database",
	}
	cmd.PersistentFlags().StringVar(&c.flags.DB, "db", c.flags.DB, "database file")

	cmd.AddCommand(&cobra.Command{
		Use:   "put <name> [file]",
		Short: "Store a document under a name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.loadTree(argOr(args, 1))
			if err != nil {
				return err
			}
			return c.withDB(cmd, func(db *flatdoc.DB) error {
				changed, err := db.Put(args[0], t)
				if err != nil {
					return err
				}
				if !changed {
					c.Logger.Info("unchanged", "name", args[0])
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add [file]",
		Short: "Store a document under a generated name and print the name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.loadTree(argOr(args, 0))
			if err != nil {
				return err
			}
			return c.withDB(cmd, func(db *flatdoc.DB) error {
				name, err := db.Add(t)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(c.Stdout, name)
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := c.treeOptions()
			if err != nil {
				return err
			}
			return c.withDB(cmd, func(db *flatdoc.DB) error {
				t, err := db.Get(args[0], opt)
				if err != nil {
					return err
				}
				_, err = flatdoc.Encode(c.Stdout, t.Sentinel(), c.encodeOptions(c.Stdout))
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ls [prefix]",
		Short: "List stored document names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDB(cmd, func(db *flatdoc.DB) error {
				names, err := db.NamesWithPrefix(argOr(args, 0))
				if err != nil {
					return err
				}
				for _, name := range names {
					if _, err := fmt.Fprintln(c.Stdout, name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <name>...",
		Short: "Delete stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDB(cmd, func(db *flatdoc.DB) error {
				for _, name := range args {
					found, err := db.Delete(name)
					if err != nil {
						return err
					}
					if !found {
						return fmt.Errorf("%w: %q", flatdoc.ErrNotFound, name)
					}
				}
				return nil
			})
		},
	})

	return cmd
}

func (c *CLI) withDB(cmd *cobra.Command, f func(db *flatdoc.DB) error) error {
	db, err := flatdoc.Open(c.cfg.DB, flatdoc.DBOptions{
		Context: cmd.Context(),
		Logger:  c.slogger(),
		Verbose: c.verbose(),
	})
	if err != nil {
		return err
	}
	err = f(db)
	if cerr := db.Close(); err == nil {
		err = cerr
	}
	return err
}

package cli

import (
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func (c *CLI) queryCommand() *cobra.Command {
	var first bool
	cmd := &cobra.Command{
		Use:   "query <jsonpath> [file]",
		Short: "Evaluate a JSONPath expression and print the matches as YAML",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.loadTree(argOr(args, 1))
			if err != nil {
				return err
			}
			results, err := t.Select(args[0])
			if err != nil {
				return err
			}
			c.Logger.Debug("query", "expr", args[0], "matches", len(results))
			var v any = results
			if first {
				if len(results) == 0 {
					return nil
				}
				v = results[0]
			}
			out, err := yaml.Marshal(v)
			if err != nil {
				return err
			}
			_, err = c.Stdout.Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&first, "first", false, "print only the first match")
	return cmd
}

func (c *CLI) yamlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "yaml [file]",
		Short: "Convert a document to YAML, keeping member order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.loadTree(argOr(args, 0))
			if err != nil {
				return err
			}
			out, err := t.YAML()
			if err != nil {
				return err
			}
			_, err = c.Stdout.Write(out)
			return err
		},
	}
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/andreyvit/flatdoc"
)

func (c *CLI) fmtCommand() *cobra.Command {
	var outPath string
	var compact bool
	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Parse a document and write it back in canonical layout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.loadTree(argOr(args, 0))
			if err != nil {
				return err
			}
			if compact {
				n := t.Compact()
				c.Logger.Debug("compacted", "erased", n)
			}
			w, closeOut, err := c.output(outPath)
			if err != nil {
				return err
			}
			p := newProgress(c.Logger)
			n, err := flatdoc.Encode(w, t.Sentinel(), c.encodeOptions(w))
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			p.done("serialized", "bytes", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&compact, "compact", false, "compact the node array before writing")
	return cmd
}

func (c *CLI) dumpCommand() *cobra.Command {
	var ranges bool
	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Print the node array one slot per line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.loadTree(argOr(args, 0))
			if err != nil {
				return err
			}
			f := flatdoc.DumpHeader | flatdoc.DumpRemoved
			if ranges {
				f |= flatdoc.DumpRanges
			}
			_, err = c.Stdout.Write([]byte(t.Dump(f)))
			return err
		},
	}
	cmd.Flags().BoolVar(&ranges, "ranges", false, "show child ranges of containers")
	return cmd
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

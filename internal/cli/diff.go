package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/andreyvit/flatdoc"
)

// ErrDocumentsDiffer is returned by the diff command when its inputs differ.
var ErrDocumentsDiffer = errors.New("documents differ")

func (c *CLI) diffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <a> <b>",
		Short: "Compare two documents line by line after normalizing both",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.loadTree(args[0])
			if err != nil {
				return err
			}
			b, err := c.loadTree(args[1])
			if err != nil {
				return err
			}
			if a.Fingerprint() == b.Fingerprint() {
				c.Logger.Debug("identical fingerprints")
				return nil
			}
			opt := flatdoc.EncodeOptions{Indent: c.cfg.Indent}
			changed, err := writeLineDiff(c.Stdout, encodeString(a, opt), encodeString(b, opt), c.colors(c.Stdout) != nil)
			if err != nil {
				return err
			}
			if changed {
				return ErrDocumentsDiffer
			}
			return nil
		},
	}
}

func encodeString(t *flatdoc.Tree, opt flatdoc.EncodeOptions) string {
	var buf strings.Builder
	flatdoc.Encode(&buf, t.Sentinel(), opt)
	return buf.String()
}

// writeLineDiff prints a unified-style listing of the lines of a and b and
// reports whether any line differs.
func writeLineDiff(w io.Writer, a, b string, colored bool) (bool, error) {
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	del, ins := fmt.Sprintf, fmt.Sprintf
	if colored {
		del, ins = color.RedString, color.GreenString
	}
	var changed bool
	for _, d := range diffs {
		prefix, paint := "  ", fmt.Sprintf
		switch d.Type {
		case diffpatch.DiffDelete:
			prefix, paint, changed = "- ", del, true
		case diffpatch.DiffInsert:
			prefix, paint, changed = "+ ", ins, true
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if _, err := io.WriteString(w, paint("%s", prefix+line)); err != nil {
				return changed, err
			}
		}
	}
	return changed, nil
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/andreyvit/flatdoc"
	"github.com/andreyvit/flatdoc/mmap"
)

func displayName(path string) string {
	if path == "" || path == "-" {
		return "<stdin>"
	}
	return path
}

// readInput returns the contents of path, or of stdin for "" and "-". The
// release func must be called once the data is no longer referenced.
func (c *CLI) readInput(path string) (data []byte, release func(), err error) {
	if path == "" || path == "-" {
		data, err = io.ReadAll(c.Stdin)
		return data, func() {}, err
	}
	if !c.cfg.Mmap {
		data, err = os.ReadFile(path)
		return data, func() {}, err
	}
	r, err := mmap.Open(path, mmap.SequentialAccess)
	if err != nil {
		return nil, nil, err
	}
	return r.Bytes(), func() {
		if err := r.Close(); err != nil {
			c.Logger.Warn("unmap failed", "path", path, "err", err)
		}
	}, nil
}

// loadTree parses the document at path. Parsed trees copy everything they
// keep, so the input can be released right away.
func (c *CLI) loadTree(path string) (*flatdoc.Tree, error) {
	opt, err := c.treeOptions()
	if err != nil {
		return nil, err
	}
	data, release, err := c.readInput(path)
	if err != nil {
		return nil, err
	}
	defer release()

	p := newProgress(c.Logger)
	t, err := flatdoc.Parse(data, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(path), err)
	}
	p.done("parsed", "input", displayName(path), "bytes", len(data), "nodes", t.Len()-1)
	return t, nil
}

// output opens path for writing, or returns stdout for "" and "-".
func (c *CLI) output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return c.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// colors decides whether output to w gets highlighted.
func (c *CLI) colors(w io.Writer) *flatdoc.Colors {
	var enabled bool
	switch c.cfg.Color {
	case "always":
		enabled = true
	case "never":
		enabled = false
	default:
		f, ok := w.(*os.File)
		enabled = ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	}
	if !enabled {
		return nil
	}
	color.NoColor = false
	return flatdoc.NewColors()
}

func (c *CLI) encodeOptions(w io.Writer) flatdoc.EncodeOptions {
	return flatdoc.EncodeOptions{
		Indent: c.cfg.Indent,
		Colors: c.colors(w),
	}
}

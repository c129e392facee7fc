// cmd/patchwork/render.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"patchwork/internal/diff"
	"patchwork/internal/graph"

	"github.com/fatih/color"
)

func (s *session) show(withDiff bool, hashes ...graph.Hash) error {
	snap, err := s.repo.Show(hashes...)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "commit %s\n", color.YellowString(string(snap.Hash)))
	if snap.Parent != "" {
		fmt.Fprintf(s.out, "parent %s\n", snap.Parent)
	}
	if len(snap.Meta) > 0 {
		meta, _ := json.Marshal(snap.Meta)
		fmt.Fprintf(s.out, "meta   %s\n", meta)
	}
	fmt.Fprintf(s.out, "\n    %s\n\n", snap.Message)

	for _, e := range snap.Content {
		attrs, _ := json.Marshal(e.Record)
		fmt.Fprintf(s.out, "%s\t%s\n", e.Name, attrs)
	}

	if withDiff && snap.Parent != "" {
		c := s.repo.Log()[snap.Hash]
		fmt.Fprintln(s.out)
		return printColoredDiff(s.out, c.Content)
	}
	return nil
}

func (s *session) printLog() {
	log := s.repo.Log()
	head, _ := s.repo.Head()

	hashes := make([]graph.Hash, 0, len(log))
	for h := range log {
		hashes = append(hashes, h)
	}
	graph.SortHashes(hashes)

	for i := len(hashes) - 1; i >= 0; i-- {
		h := hashes[i]
		marker := " "
		if h == head {
			marker = color.GreenString("*")
		}
		parent := "root"
		if p := log[h].Parent; p != "" {
			parent = string(p)
		}
		fmt.Fprintf(s.out, "%s %s %s (%s)\n", marker, color.YellowString(string(h)), log[h].Message, parent)
	}
}

func (s *session) printTree() {
	tree := s.repo.LogAsTree()
	if tree == nil {
		fmt.Fprintln(s.out, "no commits")
		return
	}

	head, _ := s.repo.Head()
	tree.Walk(func(n *graph.Node, depth int) {
		marker := " "
		if n.Hash == head {
			marker = color.GreenString("*")
		}
		fmt.Fprintf(s.out, "%s%s %s %s\n", strings.Repeat("  ", depth), marker, color.YellowString(string(n.Hash)), n.Commit.Message)
	})
}

func (s *session) printWorkingDiff() error {
	res, err := s.repo.Diff()
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Fprintln(s.out, "no changes")
		return nil
	}
	return printColoredDiff(s.out, res.Text)
}

func (s *session) printStatus() error {
	head, ok := s.repo.Head()
	if ok {
		fmt.Fprintf(s.out, "On commit %s\n", color.YellowString(string(head)))
	} else {
		fmt.Fprintln(s.out, "No commits yet")
	}

	green := color.New(color.FgGreen).SprintFunc()
	if names := s.repo.Staged().Names(); len(names) > 0 {
		fmt.Fprintln(s.out, "Staged records:")
		for _, name := range names {
			fmt.Fprintf(s.out, "\t%s %s\n", green("✓"), name)
		}
	}

	res, err := s.repo.Diff()
	if err != nil {
		return err
	}
	if res == nil && s.repo.Staged().Len() == 0 {
		fmt.Fprintln(s.out, "Working set clean")
		return nil
	}
	if res != nil {
		parsed, err := diff.Parse(res.Text)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Working set differs from head: %s, %s\n",
			color.GreenString("+%d", parsed.Stats.Additions),
			color.RedString("-%d", parsed.Stats.Deletions))
	}
	return nil
}

// printColoredDiff renders a stored patch one segment per line.
func printColoredDiff(w io.Writer, patch string) error {
	parsed, err := diff.Parse(patch)
	if err != nil {
		return err
	}

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	for _, line := range strings.Split(strings.TrimSuffix(parsed.Format(), "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			header.Fprintln(w, line)
		case strings.HasPrefix(line, "+"):
			added.Fprintln(w, line)
		case strings.HasPrefix(line, "-"):
			removed.Fprintln(w, line)
		default:
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

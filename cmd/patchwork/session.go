// cmd/patchwork/session.go
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"patchwork/internal/content"
	"patchwork/internal/errors"
	"patchwork/internal/graph"
	"patchwork/internal/repo"
	"patchwork/internal/snapshot"
	"patchwork/internal/watch"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

const prompt = "patchwork> "

// session runs text commands against one repository. Everything, including
// watcher changes, is applied on the goroutine that calls exec.
type session struct {
	repo     *repo.Repository
	out      io.Writer
	logger   *zap.Logger
	watcher  *watch.Watcher
	snapshot snapshot.Options
	export   string
}

func (s *session) close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
}

// finish writes the export snapshot, if one was requested.
func (s *session) finish() error {
	if s.export == "" {
		return nil
	}
	return s.save(s.export)
}

func (s *session) load(path string) error {
	state, err := snapshot.Read(path)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	if err := s.repo.Import(state); err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	s.logger.Info("Imported snapshot", zap.String("path", path))
	return nil
}

func (s *session) save(path string) error {
	if err := snapshot.Write(path, s.repo.Export(), s.snapshot); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	s.logger.Info("Exported snapshot", zap.String("path", path))
	return nil
}

// runScript executes every line of in and stops at the first error.
func (s *session) runScript(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for n := 1; scanner.Scan(); n++ {
		s.drain()
		if err := s.exec(scanner.Text()); err != nil {
			if err == errExit {
				return nil
			}
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}

// shell reads commands until EOF or exit, reporting errors as it goes.
// Watcher changes are applied between commands as they arrive.
func (s *session) shell(in io.Reader) error {
	done := make(chan struct{})
	defer close(done)
	lines, scanErr := readLines(in, done)

	var changes <-chan watch.Change
	if s.watcher != nil {
		changes = s.watcher.Changes()
	}

	red := color.New(color.FgRed)
	fmt.Fprint(s.out, prompt)
	for {
		select {
		case c, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.apply(c)

		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				return <-scanErr
			}
			if err := s.exec(line); err != nil {
				if err == errExit {
					return nil
				}
				red.Fprintf(s.out, "error: %v\n", err)
			}
			fmt.Fprint(s.out, prompt)
		}
	}
}

// readLines scans in on its own goroutine. The goroutine stops sending and
// returns once done is closed, though it may first finish a pending read.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		scanErr <- scanner.Err()
	}()
	return lines, scanErr
}

// drain applies every pending watcher change without blocking.
func (s *session) drain() {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case c, ok := <-s.watcher.Changes():
			if !ok {
				return
			}
			s.apply(c)
		default:
			return
		}
	}
}

func (s *session) apply(c watch.Change) {
	if err := watch.Apply(s.repo, c); err != nil {
		s.logger.Warn("Applying file change", zap.String("name", c.Name), zap.Error(err))
	}
}

var errExit = errors.Internal("exit", nil)

// exec runs one command line.
func (s *session) exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	name, rest := cutWord(line)
	switch name {
	case "save":
		recordName, attrs := cutWord(rest)
		if recordName == "" {
			return errors.InvalidInput("usage: save <name> <text | {json}>", nil)
		}
		record, err := parseAttrs(attrs)
		if err != nil {
			return err
		}
		_, err = s.repo.Save(recordName, record)
		return err

	case "saveall":
		record, err := parseAttrs(rest)
		if err != nil {
			return err
		}
		return s.repo.SaveAll(record)

	case "delete":
		return s.repo.Delete(rest)

	case "rename":
		oldName, newName := cutWord(rest)
		return s.repo.Rename(oldName, newName)

	case "add":
		return s.repo.Add(strings.Fields(rest)...)

	case "commit":
		h, err := s.repo.Commit(rest, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "[%s] %s\n", color.YellowString(string(h)), rest)
		return nil

	case "checkout":
		args, force := takeFlag(strings.Fields(rest), "--force")
		var h graph.Hash
		if len(args) > 0 {
			h = graph.Hash(args[0])
		}
		return s.repo.Checkout(h, force)

	case "discard":
		return s.repo.Discard()

	case "amend":
		if rest == "" {
			return s.repo.AmendHead()
		}
		h, message := cutWord(rest)
		changes := repo.Changes{}
		if message != "" {
			changes.Message = &message
		}
		return s.repo.Amend(graph.Hash(h), changes)

	case "adios":
		removed, err := s.repo.Adios(graph.Hash(rest))
		if err != nil {
			return err
		}
		if removed != nil {
			fmt.Fprintf(s.out, "removed %s %s\n", color.YellowString(rest), removed.Message)
		}
		return nil

	case "show":
		args, withDiff := takeFlag(strings.Fields(rest), "--diff")
		var hashes []graph.Hash
		for _, a := range args {
			hashes = append(hashes, graph.Hash(a))
		}
		return s.show(withDiff, hashes...)

	case "log":
		s.printLog()
		return nil

	case "tree":
		s.printTree()
		return nil

	case "diff":
		return s.printWorkingDiff()

	case "status":
		return s.printStatus()

	case "export":
		return s.save(rest)

	case "import":
		return s.load(rest)

	case "exit", "quit":
		return errExit

	default:
		return errors.InvalidInput(fmt.Sprintf("unknown command %q", name), line)
	}
}

// cutWord splits off the first whitespace separated word.
func cutWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func takeFlag(args []string, flag string) ([]string, bool) {
	out := args[:0]
	found := false
	for _, a := range args {
		if a == flag {
			found = true
			continue
		}
		out = append(out, a)
	}
	return out, found
}

// parseAttrs reads a JSON object, or treats plain text as {"content": text}.
func parseAttrs(text string) (content.Record, error) {
	if !strings.HasPrefix(text, "{") {
		return content.Record{"content": text}, nil
	}
	var record content.Record
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return nil, errors.InvalidInput("attributes must be a JSON object", err.Error())
	}
	return record, nil
}

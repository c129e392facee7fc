// internal/graph/commit.go
package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"patchwork/internal/content"
)

// Hash identifies a commit. Hashes are "_" followed by a counter value.
type Hash string

// FormatHash builds the hash for counter value n.
func FormatHash(n uint64) Hash {
	return Hash(fmt.Sprintf("_%d", n))
}

// Seq returns the counter value encoded in h.
func (h Hash) Seq() (uint64, bool) {
	s, ok := strings.CutPrefix(string(h), "_")
	if !ok || s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortHashes orders hashes by counter value; hashes without one sort last,
// lexically.
func SortHashes(hashes []Hash) {
	sort.Slice(hashes, func(i, j int) bool {
		a, aok := hashes[i].Seq()
		b, bok := hashes[j].Seq()
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return hashes[i] < hashes[j]
		}
	})
}

// Commit is one node of the graph. The root stores the full encoded
// snapshot in Content; every other commit stores a patch against its
// parent's accumulated content.
type Commit struct {
	Message string
	Parent  Hash // "" for the root
	Content string
	Meta    content.Record
}

func (c Commit) IsRoot() bool {
	return c.Parent == ""
}

// Copy returns c with its own copy of Meta.
func (c Commit) Copy() Commit {
	c.Meta = c.Meta.Copy()
	return c
}

type commitJSON struct {
	Message string         `json:"message"`
	Parent  *Hash          `json:"parent"`
	Content string         `json:"content"`
	Meta    content.Record `json:"meta,omitempty"`
}

func (c Commit) MarshalJSON() ([]byte, error) {
	out := commitJSON{Message: c.Message, Content: c.Content, Meta: c.Meta}
	if !c.IsRoot() {
		parent := c.Parent
		out.Parent = &parent
	}
	return json.Marshal(out)
}

func (c *Commit) UnmarshalJSON(data []byte) error {
	var in commitJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Message = in.Message
	c.Content = in.Content
	c.Meta = in.Meta
	c.Parent = ""
	if in.Parent != nil {
		c.Parent = *in.Parent
	}
	return nil
}

// internal/diff/render.go
package diff

import (
	"strings"
)

// Result is a patch together with its HTML rendering.
type Result struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\n", "<br />",
)

// HTML renders a patch as <span>/<ins>/<del> runs. Hunks are separated by
// <hr />.
func HTML(patch string) (string, error) {
	parsed, err := Parse(patch)
	if err != nil {
		return "", err
	}

	hunks := make([]string, 0, len(parsed.Hunks))
	for _, hunk := range parsed.Hunks {
		var b strings.Builder
		for _, seg := range hunk.Segments {
			text := htmlEscaper.Replace(seg.Text)
			switch seg.Type {
			case Addition:
				b.WriteString("<ins>" + text + "</ins>")
			case Deletion:
				b.WriteString("<del>" + text + "</del>")
			case Context:
				b.WriteString("<span>" + text + "</span>")
			}
		}
		hunks = append(hunks, b.String())
	}
	return strings.Join(hunks, "<hr />"), nil
}

// Compare diffs two texts and renders the result. It returns nil when the
// texts are identical.
func Compare(a, b string) (*Result, error) {
	patch := Text(a, b)
	if patch == "" {
		return nil, nil
	}
	html, err := HTML(patch)
	if err != nil {
		return nil, err
	}
	return &Result{Text: patch, HTML: html}, nil
}

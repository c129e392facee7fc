// internal/diff/patch.go
package diff

import (
	"fmt"
	"net/url"
	"strings"

	"patchwork/internal/errors"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Text computes a patch that turns a into b. The patch is plain text and
// safe to store as commit content. Identical inputs produce "".
func Text(a, b string) string {
	if a == b {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, true)
	if len(diffs) > 2 {
		diffs = dmp.DiffCleanupSemantic(diffs)
	}
	return dmp.PatchToText(dmp.PatchMake(a, diffs))
}

// Apply applies a patch produced by Text to source. Every hunk has to
// apply; a partial result is never returned.
func Apply(patch, source string) (string, error) {
	if patch == "" {
		return source, nil
	}
	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(patch)
	if err != nil {
		return "", errors.Internal("parsing patch", err.Error())
	}

	result, applied := dmp.PatchApply(patches, source)
	for i, ok := range applied {
		if !ok {
			return "", errors.Internal(fmt.Sprintf("patch hunk %d of %d does not apply", i+1, len(applied)), nil)
		}
	}
	return result, nil
}

// DecodeEscapes undoes the %xx escaping of patch bodies. A literal "+" is
// kept as is. Text that is not validly escaped is returned unchanged.
func DecodeEscapes(text string) string {
	decoded, err := url.QueryUnescape(strings.ReplaceAll(text, "+", "%2B"))
	if err != nil {
		return text
	}
	return decoded
}

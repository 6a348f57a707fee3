// Package sanitize removes AlwaysOn and XTP references from a bacpac model
// document while leaving everything else byte-for-byte intact.
package sanitize

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/mbreukel/BacpacCompatFixer/internal/xmlio"
)

// targets are the substrings whose presence in an element's local name or in
// any of its attribute values marks the element for removal. Matching is
// case-insensitive. Attribute names are deliberately not checked: an
// attribute called IsXtpEnabled with value "true" survives.
var targets = []string{"alwayson", "xtp"}

// Result holds the serialized model document after cleaning.
type Result struct {
	Text    string   // serialized document, LF newlines, no BOM
	Changed bool     // true when at least one element was removed
	Removed []string // local tag names of the removed elements, document order
}

// Clean parses the model document, detaches every element referencing
// AlwaysOn or XTP, and returns the serialized result. The document is
// serialized even when nothing matched, so callers always see the normalized
// declaration and line endings.
func Clean(text string) (*Result, error) {
	doc, err := xmlio.Parse(text)
	if err != nil {
		return nil, &ParseError{Message: "model document is not well-formed XML", Cause: err}
	}

	// Collect the full candidate set before mutating. Removing a matched
	// ancestor takes its matched descendants with it; detaching a node that
	// already sits in a detached subtree is a harmless no-op.
	var matched []*etree.Element
	collect(doc.Root(), &matched)

	removed := make([]string, 0, len(matched))
	for _, el := range matched {
		if parent := el.Parent(); parent != nil {
			parent.RemoveChild(el)
		}
		removed = append(removed, el.Tag)
	}

	out, err := xmlio.Serialize(doc)
	if err != nil {
		return nil, &ParseError{Message: "serializing model document", Cause: err}
	}

	return &Result{Text: out, Changed: len(matched) > 0, Removed: removed}, nil
}

// collect walks the element tree in pre-order and gathers removal candidates.
func collect(el *etree.Element, matched *[]*etree.Element) {
	if el == nil {
		return
	}
	if isCandidate(el) {
		*matched = append(*matched, el)
	}
	for _, child := range el.ChildElements() {
		collect(child, matched)
	}
}

func isCandidate(el *etree.Element) bool {
	if containsTarget(el.Tag) {
		return true
	}
	for _, attr := range el.Attr {
		if containsTarget(attr.Value) {
			return true
		}
	}
	return false
}

func containsTarget(s string) bool {
	lower := strings.ToLower(s)
	for _, target := range targets {
		if strings.Contains(lower, target) {
			return true
		}
	}
	return false
}

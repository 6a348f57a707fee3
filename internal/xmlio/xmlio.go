// Package xmlio provides shared parse and serialize helpers for the model
// and origin documents. Parsing preserves whitespace exactly as stored;
// serialization forces a canonical XML declaration and LF line endings.
package xmlio

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// declaration is forced onto every serialized document regardless of what
// the input carried.
const declaration = `version="1.0" encoding="utf-8"`

// Parse reads an XML document without reformatting or stripping whitespace.
func Parse(text string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("document has no root element")
	}
	return doc, nil
}

// Serialize writes the document back to text with the canonical declaration
// and all newlines normalized to LF. Untouched content is written as parsed;
// no indentation is applied.
func Serialize(doc *etree.Document) (string, error) {
	forceDeclaration(doc)
	out, err := doc.WriteToString()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(out, "\r\n", "\n"), nil
}

// forceDeclaration rewrites an existing xml declaration in place, or inserts
// one ahead of the root element when the input had none.
func forceDeclaration(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			pi.Inst = declaration
			return
		}
	}
	doc.InsertChildAt(0, etree.NewText("\n"))
	doc.InsertChildAt(0, etree.NewProcInst("xml", declaration))
}

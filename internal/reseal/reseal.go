// Package reseal recomputes the model checksum and writes it back into the
// origin manifest so the archive stays internally consistent after cleaning.
package reseal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/beevik/etree"

	"github.com/mbreukel/BacpacCompatFixer/internal/xmlio"
)

// checksumURI identifies the manifest record that carries the model hash.
const checksumURI = "/model.xml"

// ModelHash returns the upper-case hex SHA-256 of the model text, computed
// over its UTF-8 bytes with CRLF line endings normalized to LF. This is the
// value DacFx expects in the origin manifest.
func ModelHash(modelText string) string {
	normalized := strings.ReplaceAll(modelText, "\r\n", "\n")
	sum := sha256.Sum256([]byte(normalized))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Reseal computes the model hash and replaces the text of the
// Uri="/model.xml" checksum record in the origin manifest. A manifest
// without that record is serialized structurally unchanged; not every
// archive carries one. Returns the hash and the serialized manifest.
func Reseal(modelText, originText string) (string, string, error) {
	hash := ModelHash(modelText)

	doc, err := xmlio.Parse(originText)
	if err != nil {
		return "", "", &ParseError{Message: "origin document is not well-formed XML", Cause: err}
	}

	if record := findChecksum(doc); record != nil {
		record.SetText(hash)
	}

	out, err := xmlio.Serialize(doc)
	if err != nil {
		return "", "", &ParseError{Message: "serializing origin document", Cause: err}
	}
	return hash, out, nil
}

// findChecksum returns the first Checksum element in the root's default
// namespace whose Uri attribute is exactly "/model.xml". The namespace is
// read from the document rather than hardcoded; it varies across DacFx
// serialization versions.
func findChecksum(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}
	return findIn(root, root.NamespaceURI())
}

func findIn(el *etree.Element, ns string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == "Checksum" && child.NamespaceURI() == ns &&
			child.SelectAttrValue("Uri", "") == checksumURI {
			return child
		}
		if found := findIn(child, ns); found != nil {
			return found
		}
	}
	return nil
}

package formats

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jackzampolin/tableqa/internal/table"
)

// ErrInvalidXMLName is returned when a column name cannot be an XML element name.
var ErrInvalidXMLName = errors.New("invalid XML element name")

const xmlHeader = "<?xml version='1.0' encoding='utf-8'?>\n"

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

// appendIndented appends child to parent on its own line at the given depth.
func appendIndented(parent, child *html.Node, depth int) {
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: "\n" + strings.Repeat("  ", depth)})
	parent.AppendChild(child)
}

// closeIndented puts the parent's closing tag on its own line.
func closeIndented(parent *html.Node, depth int) {
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: "\n" + strings.Repeat("  ", depth)})
}

func htmlRow(cellAtom atom.Atom, values []string, depth int, attrs ...html.Attribute) *html.Node {
	tr := element(atom.Tr, attrs...)
	for _, v := range values {
		cell := element(cellAtom)
		cell.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		appendIndented(tr, cell, depth+1)
	}
	closeIndented(tr, depth)
	return tr
}

func renderHTML(t *table.Table) (any, error) {
	tbl := element(atom.Table,
		html.Attribute{Key: "border", Val: "1"},
		html.Attribute{Key: "class", Val: "dataframe"},
	)

	thead := element(atom.Thead)
	appendIndented(thead, htmlRow(atom.Th, t.Columns, 2, html.Attribute{Key: "style", Val: "text-align: right;"}), 2)
	closeIndented(thead, 1)
	appendIndented(tbl, thead, 1)

	tbody := element(atom.Tbody)
	for _, row := range t.Rows {
		appendIndented(tbody, htmlRow(atom.Td, row, 2), 2)
	}
	closeIndented(tbody, 1)
	appendIndented(tbl, tbody, 1)
	closeIndented(tbl, 0)

	var buf bytes.Buffer
	if err := html.Render(&buf, tbl); err != nil {
		return nil, fmt.Errorf("render table: %w", err)
	}
	return buf.String(), nil
}

// validXMLName reports whether name can be used as an element name
// without a namespace prefix.
func validXMLName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

func renderXML(t *table.Table) (any, error) {
	for _, c := range t.Columns {
		if !validXMLName(c) {
			return nil, fmt.Errorf("column %q: %w", c, ErrInvalidXMLName)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	data := xml.StartElement{Name: xml.Name{Local: "data"}}
	rowEl := xml.StartElement{Name: xml.Name{Local: "row"}}

	if err := enc.EncodeToken(data); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		if err := enc.EncodeToken(rowEl); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		for c, col := range t.Columns {
			if err := enc.EncodeElement(row[c], xml.StartElement{Name: xml.Name{Local: col}}); err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i, col, err)
			}
		}
		if err := enc.EncodeToken(rowEl.End()); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	if err := enc.EncodeToken(data.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

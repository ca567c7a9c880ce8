package export

import (
	"io"
	"strconv"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/antchfx/xmlquery"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// XML writes records as
//
//	<writings>
//	  <writing type="gleaning" refId="g1" author="Bahaullah" number="1" paragraph="1">
//	    <title>...</title>
//	    <text>...</text>
//	  </writing>
//	</writings>
//
// with <subtitle> and <citations> elements where the record has them.
func XML(w io.Writer, records []writings.Writing) error {
	root := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "writings"}
	for _, r := range records {
		xmlquery.AddChild(root, writingNode(r))
	}
	if _, err := io.WriteString(w, xmlDeclaration+root.OutputXML(true)+"\n"); err != nil {
		return errors.Wrap(err, "write xml")
	}
	return nil
}

func writingNode(r writings.Writing) *xmlquery.Node {
	h := writings.HeaderOf(r)
	n := element("writing")
	xmlquery.AddAttr(n, "type", string(h.Type))
	xmlquery.AddAttr(n, "refId", h.RefID)
	xmlquery.AddAttr(n, "author", string(h.Author))
	if h.Number != 0 {
		xmlquery.AddAttr(n, "number", strconv.Itoa(h.Number))
	}
	xmlquery.AddAttr(n, "paragraph", strconv.Itoa(h.Paragraph))

	xmlquery.AddChild(n, textElement("title", h.Title))
	if h.Subtitle != "" {
		xmlquery.AddChild(n, textElement("subtitle", h.Subtitle))
	}
	xmlquery.AddChild(n, textElement("text", h.Text))

	if cites := writings.CitationsOf(r); len(cites) > 0 {
		list := element("citations")
		for _, c := range cites {
			cn := textElement("citation", c.Text)
			xmlquery.AddAttr(cn, "refId", c.RefID)
			xmlquery.AddAttr(cn, "number", strconv.Itoa(c.Number))
			xmlquery.AddAttr(cn, "offset", strconv.Itoa(c.Offset))
			xmlquery.AddChild(list, cn)
		}
		xmlquery.AddChild(n, list)
	}
	return n
}

func element(name string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.ElementNode, Data: name}
}

func textElement(name, text string) *xmlquery.Node {
	n := element(name)
	xmlquery.AddChild(n, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
	return n
}

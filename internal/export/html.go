package export

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docnav/internal/document"
)

var md = goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID()))

// isoLang maps Tesseract language codes to BCP 47 tags.
var isoLang = map[string]string{
	"eng": "en", "fra": "fr", "deu": "de", "spa": "es",
	"ita": "it", "por": "pt", "nld": "nl",
}

// HTML renders the Markdown export as a standalone page with one labelled
// section landmark per page.
func HTML(doc *document.Document) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert(Markdown(doc), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	root, err := html.Parse(&body)
	if err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}
	htmlEl := find(root, atom.Html)
	head := find(root, atom.Head)
	bodyEl := find(root, atom.Body)
	if htmlEl == nil || head == nil || bodyEl == nil {
		return nil, fmt.Errorf("rendered html has no document skeleton")
	}

	root.InsertBefore(&html.Node{Type: html.DoctypeNode, Data: "html"}, root.FirstChild)
	htmlEl.Attr = append(htmlEl.Attr, html.Attribute{Key: "lang", Val: language(doc)})
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	title := element(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: doc.Name})
	head.AppendChild(title)

	landmarks(bodyEl)

	var out bytes.Buffer
	if err := html.Render(&out, root); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return out.Bytes(), nil
}

// landmarks moves the body into <main> and opens a <section> at every h2,
// labelled by that heading.
func landmarks(body *html.Node) {
	var children []*html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	mainEl := element(atom.Main)
	var section *html.Node
	for _, c := range children {
		body.RemoveChild(c)
		if c.Type == html.ElementNode && c.DataAtom == atom.H2 {
			section = element(atom.Section)
			if id := attr(c, "id"); id != "" {
				section.Attr = append(section.Attr, html.Attribute{Key: "aria-labelledby", Val: id})
			}
			mainEl.AppendChild(section)
		}
		if section != nil {
			section.AppendChild(c)
		} else {
			mainEl.AppendChild(c)
		}
	}
	body.AppendChild(mainEl)
}

// language picks the most common page language.
func language(doc *document.Document) string {
	counts := map[string]int{}
	best, bestN := "eng", 0
	for _, p := range doc.Pages {
		if p.OCR.Language == "" {
			continue
		}
		counts[p.OCR.Language]++
		if n := counts[p.OCR.Language]; n > bestN {
			best, bestN = p.OCR.Language, n
		}
	}
	if tag, ok := isoLang[best]; ok {
		return tag
	}
	return "en"
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := find(c, a); f != nil {
			return f
		}
	}
	return nil
}

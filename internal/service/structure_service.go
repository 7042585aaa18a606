// internal/service/structure_service.go
package service

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/unclebandit/order-email-api/internal/model"
)

var placeholderPattern = regexp.MustCompile(`\|([^|\r\n]+)\|`)

// StructureService derives a SchemaDescriptor from template text.
type StructureService struct {
	// RowField is both the id of the row table element and its descriptor key
	RowField string
}

func NewStructureService(rowField string) *StructureService {
	return &StructureService{RowField: rowField}
}

func (s *StructureService) Introspect(template string) (model.SchemaDescriptor, error) {
	var schema model.SchemaDescriptor

	for _, name := range Placeholders(template) {
		schema.AddField(name)
	}

	doc, err := html.Parse(strings.NewReader(template))
	if err != nil {
		return model.SchemaDescriptor{}, fmt.Errorf("parse template: %w", err)
	}
	if table := findByID(doc, s.RowField); table != nil {
		if columns := headerCells(table); len(columns) > 0 {
			schema.SetColumns(s.RowField, columns)
		}
	}

	return schema, nil
}

// Placeholders returns the distinct |name| tokens of text in first-occurrence order.
func Placeholders(text string) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func headerCells(n *html.Node) []string {
	var labels []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Th {
			labels = append(labels, strings.TrimSpace(textContent(n)))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return labels
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

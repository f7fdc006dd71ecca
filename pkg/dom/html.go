package dom

import (
	"html"
	"sort"
	"strings"
)

// Void elements have no closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// HTML serializes the subtree rooted at n. Attributes are emitted in sorted
// order so output is deterministic.
func (n *Node) HTML() string {
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

func (n *Node) writeHTML(b *strings.Builder) {
	switch n.kind {
	case NodeText:
		b.WriteString(html.EscapeString(n.text))
		return
	case NodeComment:
		b.WriteString("<!--")
		b.WriteString(n.text)
		b.WriteString("-->")
		return
	}

	b.WriteByte('<')
	b.WriteString(n.tag)

	for _, k := range sortedKeys(n.attrs) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(n.attrs[k]))
		b.WriteByte('"')
	}

	if len(n.classes) > 0 {
		b.WriteString(` class="`)
		b.WriteString(html.EscapeString(strings.Join(n.classes, " ")))
		b.WriteByte('"')
	}

	if len(n.styles) > 0 {
		b.WriteString(` style="`)
		for i, s := range n.styles {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(html.EscapeString(s.prop))
			b.WriteString(": ")
			b.WriteString(html.EscapeString(s.value))
			b.WriteByte(';')
		}
		b.WriteByte('"')
	}

	if n.hasValue {
		b.WriteString(` value="`)
		b.WriteString(html.EscapeString(n.value))
		b.WriteByte('"')
	}

	if voidElements[n.tag] {
		b.WriteByte('>')
		return
	}

	b.WriteByte('>')
	for _, child := range n.children {
		child.writeHTML(b)
	}
	b.WriteString("</")
	b.WriteString(n.tag)
	b.WriteByte('>')
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

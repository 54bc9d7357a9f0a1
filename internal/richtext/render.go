package richtext

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"
)

// Renderer writes documents as HTML
type Renderer struct {
	Images ImageURLBuilder
}

// Render returns the HTML for doc. Consecutive list items of the same kind are
// grouped into one list.
func (r Renderer) Render(doc Document) template.HTML {
	var b strings.Builder

	for i := 0; i < len(doc); i++ {
		switch n := doc[i].(type) {
		case Heading:
			r.heading(&b, n)
		case Paragraph:
			r.paragraph(&b, n)
		case ListItem:
			j := i + 1
			for j < len(doc) {
				next, ok := doc[j].(ListItem)
				if !ok || next.Ordered != n.Ordered {
					break
				}
				j++
			}
			r.list(&b, doc[i:j], n.Ordered)
			i = j - 1
		case Image:
			r.image(&b, n)
		}
	}

	return template.HTML(b.String())
}

func (r Renderer) heading(b *strings.Builder, h Heading) {
	class := "text-xl font-bold my-5"
	if h.Level == 1 {
		class = "text-2xl font-bold my-5"
	}
	tag := "h" + strconv.Itoa(h.Level)
	b.WriteString("<" + tag + ` class="` + class + `">`)
	r.inlines(b, h.Children)
	b.WriteString("</" + tag + ">")
}

func (r Renderer) paragraph(b *strings.Builder, p Paragraph) {
	if p.Quote {
		b.WriteString("<blockquote>")
		r.inlines(b, p.Children)
		b.WriteString("</blockquote>")
		return
	}
	b.WriteString("<p>")
	r.inlines(b, p.Children)
	b.WriteString("</p>")
}

func (r Renderer) list(b *strings.Builder, items Document, ordered bool) {
	tag := "ul"
	if ordered {
		tag = "ol"
	}
	b.WriteString("<" + tag + ">")
	for _, node := range items {
		item := node.(ListItem)
		b.WriteString(`<li class="ml-4 list-disc" data-level="` + strconv.Itoa(item.Level) + `">`)
		r.inlines(b, item.Children)
		b.WriteString("</li>")
	}
	b.WriteString("</" + tag + ">")
}

func (r Renderer) image(b *strings.Builder, img Image) {
	src := r.Images.URL(img.Asset)
	if src == "" {
		return
	}
	b.WriteString(`<img class="my-5" src="`)
	b.WriteString(template.HTMLEscapeString(src))
	b.WriteString(`" alt="`)
	b.WriteString(template.HTMLEscapeString(img.Alt))
	b.WriteString(`">`)
}

func (r Renderer) inlines(b *strings.Builder, inlines []Inline) {
	for _, inline := range inlines {
		switch n := inline.(type) {
		case Text:
			writeText(b, n)
		case Link:
			b.WriteString(`<a href="`)
			b.WriteString(template.HTMLEscapeString(safeHref(n.Href)))
			b.WriteString(`" class="text-blue-600 hover:underline">`)
			for _, child := range n.Children {
				writeText(b, child)
			}
			b.WriteString("</a>")
		}
	}
}

func writeText(b *strings.Builder, t Text) {
	for _, mark := range t.Marks {
		b.WriteString("<" + decorators[mark] + ">")
	}
	b.WriteString(strings.ReplaceAll(template.HTMLEscapeString(t.Text), "\n", "<br>"))
	for i := len(t.Marks) - 1; i >= 0; i-- {
		b.WriteString("</" + decorators[t.Marks[i]] + ">")
	}
}

// safeHref drops links with schemes other than http, https and mailto
func safeHref(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return u.String()
	default:
		return "#"
	}
}

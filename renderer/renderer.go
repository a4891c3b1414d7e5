package renderer

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/invoicing"
	md "github.com/nao1215/markdown"
)

// Document is the view of a Preview used by the document templates.
type Document struct {
	*invoicing.Preview
	Title      string // "Quotation" or "Invoice"
	Quotation  bool
	PerItemTax bool
	Pages      []Page
}

// Page is one page of a Document.
type Page struct {
	invoicing.PageDescriptor
	PerItemTax bool
	Tax        invoicing.TaxPolicy
}

// NewDocument creates the view of a computed document.
func NewDocument(p *invoicing.Preview) *Document {
	d := &Document{
		Preview:    p,
		Title:      "Invoice",
		Quotation:  p.Document.Kind == invoicing.Quotation,
		PerItemTax: p.Tax.Mode() == invoicing.PerItemMode,
		Pages:      make([]Page, 0, len(p.Pages)),
	}
	if d.Quotation {
		d.Title = "Quotation"
	}
	for _, page := range p.Pages {
		d.Pages = append(d.Pages, Page{PageDescriptor: page, PerItemTax: d.PerItemTax, Tax: p.Tax})
	}
	return d
}

// RenderPreview renders a computed document to markdown, one section per
// page. The header block is printed on the first page only, the totals
// block on the last page only.
func RenderPreview(p *invoicing.Preview) string {
	partials := map[string]string{
		"document_header": "document_header.md",
		"document_items":  "document_items.md",
		"document_footer": "document_footer.md",
	}
	return renderTemplate("document", "document.md", partials, NewDocument(p))
}

// RenderTotals renders the items amounts and the totals as a markdown summary.
func RenderTotals(items []invoicing.NormalizedLineItem, totals invoicing.DocumentTotals, policy invoicing.TaxPolicy) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Totals")
	if len(items) > 0 {
		doc.H2("Items")
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			rows = append(rows, []string{
				fmt.Sprint(item.SequenceNumber),
				cell(item.Description),
				invoicing.FormatCurrency(item.Amount),
			})
		}
		doc.Table(md.TableSet{
			Header:    []string{"#", "Description", "Amount"},
			Alignment: []md.TableAlignment{md.AlignRight, md.AlignLeft, md.AlignRight},
			Rows:      rows,
		})
	}

	taxLabel := fmt.Sprintf("VAT (%s)", policy.Rate())
	if policy.Mode() == invoicing.PerItemMode {
		taxLabel = "VAT (per item)"
	}
	doc.H2("Summary")
	doc.Table(md.TableSet{
		Header:    []string{"Summary", "Amount"},
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Rows: [][]string{
			{"Subtotal", invoicing.FormatRand(totals.Subtotal)},
			{taxLabel, invoicing.FormatRand(totals.TaxAmount)},
			{md.Bold("Total"), md.Bold(invoicing.FormatRand(totals.GrandTotal))},
		},
	})
	return doc.String()
}

// funcs are the helpers available in every template.
var funcs = template.FuncMap{
	"currency": invoicing.FormatCurrency,
	"rand":     invoicing.FormatRand,
	"cell":     cell,
	// price formats a typed amount, empty when absent.
	"price": func(n invoicing.Number) string {
		if !n.IsSet() {
			return ""
		}
		return invoicing.FormatCurrency(invoicing.R(n.Value()))
	},
	// percent formats a typed rate, empty when absent.
	"percent": func(n invoicing.Number) string {
		if !n.IsSet() {
			return ""
		}
		return n.String() + "%"
	},
	// vat formats the rate applied to an item, the policy default included.
	"vat": func(policy invoicing.TaxPolicy, item invoicing.LineItem) string {
		return policy.ItemRate(item).Decimal().String() + "%"
	},
}

// cell makes free text safe for a single line table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			content, err = fs.ReadFile(templates, file)
			if err != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

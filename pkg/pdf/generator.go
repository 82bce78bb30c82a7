package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Color is an RGB color
type Color struct {
	R, G, B int
}

// Options configures report layout
type Options struct {
	Title          string
	Subtitle       string
	Author         string
	FontFamily     string
	FontSize       float64
	TitleFontSize  float64
	HeaderColor    Color
	AlternateColor Color
	StatusColor    *Color
}

// DefaultOptions returns the layout used for verification reports
func DefaultOptions() Options {
	return Options{
		Title:          "Report",
		FontFamily:     "Arial",
		FontSize:       10,
		TitleFontSize:  16,
		HeaderColor:    Color{R: 68, G: 114, B: 196},
		AlternateColor: Color{R: 242, G: 242, B: 242},
	}
}

// Section is a titled block made of label/value rows followed by free text lines
type Section struct {
	Heading string
	Rows    [][2]string
	Lines   []string
}

// Document is the content of a report
type Document struct {
	Status   string
	Sections []Section
}

// Generator renders documents to PDF bytes
type Generator struct {
	options Options
	now     func() time.Time
}

func NewGenerator(options Options) *Generator {
	return &Generator{options: options, now: time.Now}
}

// Render lays out the document on A4 pages and returns the encoded PDF
func (g *Generator) Render(doc Document) ([]byte, error) {
	o := g.options
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(o.Title, true)
	if o.Author != "" {
		pdf.SetAuthor(o.Author, true)
	}
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(o.FontFamily, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(o.FontFamily, "B", o.TitleFontSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, o.Title, "", 1, "C", false, 0, "")
	if o.Subtitle != "" {
		pdf.SetFont(o.FontFamily, "", o.FontSize+2)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 8, o.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.SetFont(o.FontFamily, "", o.FontSize-1)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 6, "Generated: "+g.now().UTC().Format(time.RFC1123), "", 1, "R", false, 0, "")

	if doc.Status != "" {
		pdf.Ln(4)
		c := o.HeaderColor
		if o.StatusColor != nil {
			c = *o.StatusColor
		}
		pdf.SetFillColor(c.R, c.G, c.B)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont(o.FontFamily, "B", o.FontSize+4)
		pdf.CellFormat(0, 12, doc.Status, "", 1, "C", true, 0, "")
	}

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	labelWidth := (pageWidth - left - right) * 0.35
	valueWidth := (pageWidth - left - right) - labelWidth

	for _, section := range doc.Sections {
		pdf.Ln(6)
		pdf.SetFont(o.FontFamily, "B", o.FontSize+2)
		pdf.SetTextColor(o.HeaderColor.R, o.HeaderColor.G, o.HeaderColor.B)
		pdf.CellFormat(0, 8, section.Heading, "B", 1, "L", false, 0, "")

		pdf.SetTextColor(0, 0, 0)
		for i, row := range section.Rows {
			fill := i%2 == 1
			if fill {
				pdf.SetFillColor(o.AlternateColor.R, o.AlternateColor.G, o.AlternateColor.B)
			}
			pdf.SetFont(o.FontFamily, "B", o.FontSize)
			pdf.CellFormat(labelWidth, 7, row[0], "", 0, "L", fill, 0, "")
			pdf.SetFont(o.FontFamily, "", o.FontSize)
			pdf.CellFormat(valueWidth, 7, row[1], "", 1, "L", fill, 0, "")
		}

		pdf.SetFont(o.FontFamily, "", o.FontSize)
		for _, line := range section.Lines {
			pdf.MultiCell(0, 6, "- "+line, "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Package render draws layout primitives onto a single PDF page.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"dailyplanner/internal/layout"
)

// ErrUnknownPrimitive is returned for primitive types the sink cannot draw.
var ErrUnknownPrimitive = errors.New("unknown primitive")

// PDF renders one page of primitives. The zero value draws on A4.
type PDF struct {
	Page  layout.Page
	Title string
	// Created is stamped into the document metadata. A fixed value makes
	// the output byte-for-byte reproducible.
	Created time.Time
}

// Write renders prims in order and writes the finished document to w.
func (p PDF) Write(w io.Writer, prims []layout.Primitive) error {
	page := p.Page
	if page == (layout.Page{}) {
		page = layout.A4()
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(0, 0, 0)
	if !p.Created.IsZero() {
		doc.SetCreationDate(p.Created)
		doc.SetModificationDate(p.Created)
	}
	if p.Title != "" {
		doc.SetTitle(p.Title, true)
	}
	doc.SetCreator("dailyplanner", false)
	doc.AddPage()

	tr := doc.UnicodeTranslatorFromDescriptor("")
	for i, prim := range prims {
		if err := draw(doc, tr, prim); err != nil {
			return fmt.Errorf("primitive %d: %w", i, err)
		}
	}
	if err := doc.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return doc.Output(w)
}

// Bytes renders prims into memory.
func (p PDF) Bytes(prims []layout.Primitive) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Write(&buf, prims); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes data to a temp file in the same directory as path and
// renames it into place, so readers never see a half-written PDF.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".planner-*.pdf.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func draw(doc *fpdf.Fpdf, tr func(string) string, prim layout.Primitive) error {
	switch v := prim.(type) {
	case layout.FilledRect:
		setFill(doc, v.Fill)
		doc.Rect(v.X, v.Y, v.W, v.H, "F")
	case layout.StrokedRect:
		setStroke(doc, v.Stroke, v.LineWidth)
		doc.Rect(v.X, v.Y, v.W, v.H, "D")
	case layout.RoundedRect:
		style := "D"
		if v.Filled {
			setFill(doc, v.Color)
			style = "F"
		} else {
			setStroke(doc, v.Color, v.LineWidth)
		}
		doc.RoundedRect(v.X, v.Y, v.W, v.H, v.Radius, "1234", style)
	case layout.Line:
		setStroke(doc, v.Stroke, v.LineWidth)
		doc.Line(v.X1, v.Y1, v.X2, v.Y2)
	case layout.Text:
		doc.SetFont(v.Font.Family, string(v.Font.Style), v.Font.Size)
		doc.SetTextColor(int(v.Color.R), int(v.Color.G), int(v.Color.B))
		s := tr(v.Text)
		x := v.X
		if v.Align == layout.AlignRight {
			x -= doc.GetStringWidth(s)
		}
		doc.Text(x, v.Y, s)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownPrimitive, prim)
	}
	return nil
}

func setFill(doc *fpdf.Fpdf, c layout.Color) {
	doc.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func setStroke(doc *fpdf.Fpdf, c layout.Color, width float64) {
	doc.SetDrawColor(int(c.R), int(c.G), int(c.B))
	if width <= 0 {
		width = 0.5
	}
	doc.SetLineWidth(width)
}

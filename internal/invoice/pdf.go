package invoice

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"shopease/internal/domain"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// PDFOptions controls the printable invoice
type PDFOptions struct {
	StoreName string
	// LogoPath and catalog image paths are resolved against ImageRoot
	LogoPath  string
	ImageRoot string
	// Currency prefix; core PDF fonts cannot draw ₹ so the default is "Rs. "
	Currency string
	Website  string
	Compress bool
}

const (
	pageMargin   = 15.0
	maxRowHeight = 14.0
	minRowHeight = 6.0
	headerHeight = 9.0
	tableBottom  = 250.0
)

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Item", 70, "L"},
	{"Image", 25, "C"},
	{"Qty", 20, "C"},
	{"Price", 32, "R"},
	{"Total", 33, "R"},
}

// PDFRenderer draws invoices as single-page A4 documents
type PDFRenderer struct {
	opts   PDFOptions
	logger *zap.Logger
}

func NewPDFRenderer(opts PDFOptions, logger *zap.Logger) *PDFRenderer {
	if opts.Currency == "" {
		opts.Currency = "Rs. "
	}
	if opts.StoreName == "" {
		opts.StoreName = "ShopEase"
	}
	return &PDFRenderer{opts: opts, logger: logger}
}

// Render writes inv as a PDF to w
func (r *PDFRenderer) Render(w io.Writer, inv domain.Invoice) error {
	pdf, err := r.build(inv)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write invoice pdf: %w", err)
	}
	return nil
}

func (r *PDFRenderer) build(inv domain.Invoice) (*fpdf.Fpdf, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.opts.Compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Invoice "+inv.OrderID, true)
	pdf.SetCreator(r.opts.StoreName, true)
	if !inv.PlacedAt.IsZero() {
		pdf.SetCreationDate(inv.PlacedAt)
	}
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pageMargin

	// header
	if logo, ok := r.image(pdf, r.opts.LogoPath); ok {
		pdf.ImageOptions(logo, pageMargin, pageMargin, 0, 18, false, fpdf.ImageOptions{}, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(51, 51, 51)
	pdf.CellFormat(contentWidth, 10, "Invoice", "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth, 5, tr("Order ID: "+inv.OrderID), "", 1, "R", false, 0, "")
	pdf.CellFormat(contentWidth, 5, tr("Date: "+inv.OrderDate), "", 1, "R", false, 0, "")
	pdf.Ln(8)

	// billing
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, 7, "Billing To:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth, 5, tr(inv.BillingName), "", 1, "L", false, 0, "")
	pdf.MultiCell(contentWidth, 5, tr(inv.Address), "", "L", false)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(32, 5, "Payment Method:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth-32, 5, tr(inv.PaymentMethod), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// items
	pdf.SetDrawColor(204, 204, 204)
	pdf.SetFillColor(245, 245, 245)
	pdf.SetFont("Helvetica", "B", 10)
	for _, col := range columns {
		pdf.CellFormat(col.width, headerHeight, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	rowHeight := r.rowHeight(pdf.GetY()+headerHeight, len(inv.Lines))
	pdf.SetFont("Helvetica", "", 10)
	for i, line := range inv.Lines {
		if i%2 == 0 {
			pdf.SetFillColor(255, 255, 255)
		} else {
			pdf.SetFillColor(249, 249, 249)
		}

		x, y := pdf.GetXY()
		cells := []string{
			tr(line.Name),
			"",
			strconv.Itoa(line.Quantity),
			r.money(line.UnitPrice),
			r.money(line.Total),
		}
		for j, col := range columns {
			pdf.CellFormat(col.width, rowHeight, cells[j], "1", 0, col.align, true, 0, "")
		}

		if img, ok := r.image(pdf, line.Image); ok {
			imgHeight := rowHeight - 2
			imgX := x + columns[0].width + (columns[1].width-imgHeight)/2
			pdf.ImageOptions(img, imgX, y+1, 0, imgHeight, false, fpdf.ImageOptions{}, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentWidth, 8, "Grand Total: "+r.money(inv.GrandTotal), "", 1, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(contentWidth, 5, tr("Thank you for shopping with "+r.opts.StoreName+"!"), "", 1, "C", false, 0, "")
	if r.opts.Website != "" {
		pdf.CellFormat(contentWidth, 5, tr("Visit us again at "+r.opts.Website), "", 1, "C", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to build invoice pdf: %w", err)
	}
	return pdf, nil
}

// rowHeight shrinks rows so that every line fits above the footer
func (r *PDFRenderer) rowHeight(top float64, lines int) float64 {
	if lines == 0 {
		return maxRowHeight
	}
	h := (tableBottom - top) / float64(lines)
	if h > maxRowHeight {
		return maxRowHeight
	}
	if h < minRowHeight {
		return minRowHeight
	}
	return h
}

func (r *PDFRenderer) money(amount int) string {
	return r.opts.Currency + strconv.Itoa(amount)
}

// image registers a JPEG, PNG or GIF found under ImageRoot. Missing or
// unreadable images are skipped.
func (r *PDFRenderer) image(pdf *fpdf.Fpdf, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		return "", false
	}

	full := filepath.Join(r.opts.ImageRoot, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	if _, err := os.Stat(full); err != nil {
		r.logger.Debug("Invoice image not available", zap.String("path", full))
		return "", false
	}

	pdf.RegisterImageOptions(full, fpdf.ImageOptions{})
	if !pdf.Ok() {
		r.logger.Warn("Skipping unreadable invoice image", zap.String("path", full), zap.Error(pdf.Error()))
		pdf.ClearError()
		return "", false
	}
	return full, true
}

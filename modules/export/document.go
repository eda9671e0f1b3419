package export

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// BuildPDF renders a paginated storyboard summary: a metadata page,
// the script, then one block per successful shot with its prompt and
// motion suggestion. Page breaks are automatic.
func BuildPDF(b Bundle) ([]byte, error) {
	successCount := 0
	for _, shot := range b.Shots {
		if shot.Success {
			successCount++
		}
	}
	if successCount == 0 {
		return nil, &PreconditionError{Reason: "no successful shots to export"}
	}

	log.Printf("📄 Building PDF summary: %d shots", successCount)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)

	// Cover / metadata
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Cell(0, 12, "Storyboard Summary")
	pdf.Ln(16)

	if b.Description != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Deskripsi")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, b.Description, "", "L", false)
		pdf.Ln(4)
	}

	if len(b.Keywords) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Keywords")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, strings.Join(b.Keywords, ", "), "", "L", false)
		pdf.Ln(4)
	}

	if b.Script != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Naskah Video")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, b.Script, "", "L", false)
	}

	// One block per successful shot
	imageCount := 0
	for i, shot := range b.Shots {
		if !shot.Success {
			continue
		}
		imageCount++

		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Cell(0, 10, fmt.Sprintf("Gambar %d", imageCount))
		pdf.Ln(12)

		if len(shot.ImageData) > 0 {
			name := fmt.Sprintf("shot_%d", i)
			pdf.RegisterImageOptionsReader(name,
				gofpdf.ImageOptions{ImageType: "PNG"},
				bytes.NewReader(shot.ImageData))
			pdf.ImageOptions(name, 15, pdf.GetY(), 120, 0, true,
				gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			pdf.Ln(6)
		}

		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 8, "Prompt")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, shot.Prompt, "", "L", false)
		pdf.Ln(4)

		if i < len(b.MotionPrompts) && b.MotionPrompts[i] != nil {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.Cell(0, 8, "Saran Animasi")
			pdf.Ln(8)
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, *b.MotionPrompts[i], "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	log.Printf("✅ PDF built: %d bytes", buf.Len())
	return buf.Bytes(), nil
}

package ticket

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"eventreserve/internal/domain"
)

type pdfRenderer struct{}

// NewPDFRenderer returns a TicketRenderer producing a single-page A4
// PDF ticket.
func NewPDFRenderer() domain.TicketRenderer {
	return &pdfRenderer{}
}

func (p *pdfRenderer) Render(data *domain.TicketData, w io.Writer) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 22)
	doc.CellFormat(0, 12, "EVENT TICKET", "", 1, "C", false, 0, "")
	doc.Ln(4)

	x, y := doc.GetX(), doc.GetY()
	pageWidth, _ := doc.GetPageSize()
	doc.Line(x, y, pageWidth-20, y)
	doc.Ln(6)

	doc.SetFont("Helvetica", "", 12)
	line := func(label, value string) {
		doc.CellFormat(0, 8, fmt.Sprintf("%s: %s", label, value), "", 1, "L", false, 0, "")
	}
	line("Name", data.UserFullName)
	line("Email", data.Email)
	doc.Ln(4)
	line("Event", data.EventTitle)
	line("Date", data.EventDate.Format("Mon, 02 Jan 2006 15:04"))
	line("Location", data.Location)
	doc.Ln(4)
	line("Reservation ID", data.ReservationID)
	line("Status", string(data.Status))

	doc.Ln(12)
	doc.CellFormat(0, 8, "Please present this ticket at the entrance.", "", 1, "C", false, 0, "")

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render ticket pdf: %w", err)
	}
	return nil
}

package domain

import "io"

// TicketRenderer turns a confirmed reservation's ticket data into a
// printable document written to w.
type TicketRenderer interface {
	Render(data *TicketData, w io.Writer) error
}

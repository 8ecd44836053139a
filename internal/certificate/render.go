package certificate

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

// Render writes a plain-text certificate.
func (c *Certificate) Render(w io.Writer, verified bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	line := strings.Repeat("=", 60)

	fmt.Fprintln(tw, line)
	fmt.Fprintln(tw, "SECUREWIPE DATA SANITIZATION CERTIFICATE")
	fmt.Fprintln(tw, line)
	fmt.Fprintf(tw, "Certificate ID:\t%s\n", c.ID)
	fmt.Fprintf(tw, "Issue Date:\t%s (%s)\n", c.GeneratedAt.UTC().Format("January 02, 2006 at 15:04 UTC"), humanize.Time(c.GeneratedAt))
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "OPERATION SUMMARY")
	fmt.Fprintf(tw, "Wipe ID:\t%s\n", c.WipeID)
	fmt.Fprintf(tw, "Device ID:\t%s\n", c.DeviceID)
	fmt.Fprintf(tw, "Wipe Standard:\t%s\n", StandardName(c.Standard))
	fmt.Fprintf(tw, "Number of Passes:\t%d\n", c.Passes)
	fmt.Fprintf(tw, "Operation Mode:\t%s\n", c.Mode)
	fmt.Fprintf(tw, "Start Time:\t%s\n", c.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(tw, "Duration:\t%.1f seconds\n", c.DurationSeconds)
	fmt.Fprintf(tw, "Status:\tCOMPLETED\n")
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Verification Code:\t%s\n", c.VerificationCode)
	status := "FAILED"
	if verified {
		status = "OK"
	}
	fmt.Fprintf(tw, "Verification:\t%s\n", status)
	fmt.Fprintf(tw, "Digital Timestamp:\t%s\n", c.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintln(tw, line)
	fmt.Fprintln(tw, "NOTICE: this certificate records a SIMULATED operation.")
	fmt.Fprintln(tw, "No data was destroyed.")
	return tw.Flush()
}

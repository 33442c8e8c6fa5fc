package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/geodash/internal/client/models"
	"github.com/dmitrijs2005/geodash/internal/client/view"
)

const shortIDLen = 8

// Initials is the avatar text for name: the first letter of the first and
// last words, or "?" for an empty name.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "?"
	}
	first := firstUpper(parts[0])
	if len(parts) == 1 {
		return first
	}
	return first + firstUpper(parts[len(parts)-1])
}

func firstUpper(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r))
}

// FormatLocation renders coordinates with four decimals, or N/A.
func FormatLocation(g *models.Geo) string {
	if g == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.4f°, %.4f°", g.Latitude, g.Longitude)
}

// FormatTimeZone renders an offset in seconds as UTC±H (whole hours,
// rounded toward zero), or N/A.
func FormatTimeZone(g *models.Geo) string {
	if g == nil {
		return "N/A"
	}
	hours := int(math.Floor(math.Abs(float64(g.TimeZoneOffset)) / 3600))
	sign := "+"
	if g.TimeZoneOffset < 0 {
		sign = "-"
	}
	return fmt.Sprintf("UTC%s%d", sign, hours)
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// RenderTable writes users as an aligned table. The row whose id is
// pendingID is marked as being deleted.
func RenderTable(w io.Writer, users []models.User, pendingID string) error {
	if len(users) == 0 {
		_, err := fmt.Fprintln(w, "No users yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tZIP\tLOCATION\tTIMEZONE\tUPDATED\t")
	for _, u := range users {
		status := ""
		if pendingID != "" && u.ID == pendingID {
			status = "deleting…"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			Initials(u.Name),
			shortID(u.ID),
			u.Name,
			u.ZipCode,
			FormatLocation(u.Geo),
			FormatTimeZone(u.Geo),
			u.UpdatedAt.UTC().Format("2006-01-02 15:04 UTC"),
			status,
		)
	}
	return tw.Flush()
}

// RenderSnapshot writes the whole dashboard: a status line, the table and
// the last error.
func RenderSnapshot(w io.Writer, s view.Snapshot) error {
	status := fmt.Sprintf("Users: %d", len(s.Records))
	if s.Loading {
		status += "  (refreshing…)"
	}
	if !s.LastRefresh.IsZero() {
		status += "  last refresh " + s.LastRefresh.UTC().Format("15:04:05")
	}
	if _, err := fmt.Fprintln(w, status); err != nil {
		return err
	}

	if err := RenderTable(w, s.Records, s.PendingDeletionID); err != nil {
		return err
	}

	if s.LastError != nil {
		_, err := fmt.Fprintf(w, "Error: %s\n", s.LastError)
		return err
	}
	return nil
}

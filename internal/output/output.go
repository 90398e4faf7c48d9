// Package output renders portal responses: pretty JSON for most commands
// and the fixed-width listing for ls.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"agtool/internal/portal"
)

// WriteJSON pretty-prints v with sorted keys and a trailing newline.
func WriteJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// WriteRawJSON re-encodes a raw response body through a generic value so the
// output has stable, sorted keys. A body that is not JSON is written as-is.
func WriteRawJSON(w io.Writer, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		_, werr := w.Write(append(raw, '\n'))
		return werr
	}
	return WriteJSON(w, v)
}

// PrintListing renders the ls view: folders first, suffixed with a slash,
// then items in fixed-width columns (access, owner, size, modified, name,
// title).
func PrintListing(w io.Writer, listing portal.ContentListing) error {
	for _, f := range listing.Folders {
		if _, err := fmt.Fprintf(w, "%s/\n", f.Title); err != nil {
			return err
		}
	}
	for _, it := range listing.Items {
		modified := time.UnixMilli(int64(it.Modified)).Format("2006-01-02 15:04:05")
		_, err := fmt.Fprintf(w, "%-10s %-10s %10d %-20s %s (%s)\n",
			it.Access,
			it.Owner,
			int64(it.Size),
			modified,
			it.Name,
			it.Title,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ElapsedString formats a duration the way the login command reports token
// validity: whole seconds below a minute, whole minutes above.
func ElapsedString(d time.Duration) string {
	sec := int64(d / time.Second)
	if sec < 60 {
		return fmt.Sprintf("%d seconds", sec)
	}
	return fmt.Sprintf("%d minutes", sec/60)
}

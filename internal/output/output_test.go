package output

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"agtool/internal/portal"
)

func TestPrintListingFoldersFirst(t *testing.T) {
	listing := portal.ContentListing{
		Folders: []portal.Folder{{ID: "f1", Title: "proj"}, {ID: "f2", Title: "scratch"}},
		Items: []portal.Item{{
			ID:       "i1",
			Title:    "F",
			Name:     "f.txt",
			Access:   "shared",
			Owner:    "bob",
			Size:     10,
			Modified: 0,
		}},
	}
	var buf bytes.Buffer
	if err := PrintListing(&buf, listing); err != nil {
		t.Fatalf("PrintListing: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "proj/" || lines[1] != "scratch/" {
		t.Fatalf("folder lines = %q", lines[:2])
	}
	modified := time.UnixMilli(0).Format("2006-01-02 15:04:05")
	want := fmt.Sprintf("%-10s %-10s %10d %-20s %s (%s)", "shared", "bob", 10, modified, "f.txt", "F")
	if lines[2] != want {
		t.Fatalf("item line\n got %q\nwant %q", lines[2], want)
	}
}

func TestPrintListingEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintListing(&buf, portal.ContentListing{}); err != nil {
		t.Fatalf("PrintListing: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestWriteRawJSONSortsKeys(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRawJSON(&buf, []byte(`{"zebra":1,"apple":{"beta":2,"alpha":1}}`)); err != nil {
		t.Fatalf("WriteRawJSON: %v", err)
	}
	want := `{
    "apple": {
        "alpha": 1,
        "beta": 2
    },
    "zebra": 1
}
`
	if buf.String() != want {
		t.Fatalf("output\n got %q\nwant %q", buf.String(), want)
	}
}

func TestWriteRawJSONPassesThroughNonJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRawJSON(&buf, []byte("not json")); err != nil {
		t.Fatalf("WriteRawJSON: %v", err)
	}
	if buf.String() != "not json\n" {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestElapsedString(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5 seconds"},
		{59 * time.Second, "59 seconds"},
		{60 * time.Second, "1 minutes"},
		{119 * time.Second, "1 minutes"},
		{2 * time.Hour, "120 minutes"},
	}
	for _, tt := range tests {
		if got := ElapsedString(tt.d); got != tt.want {
			t.Errorf("ElapsedString(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

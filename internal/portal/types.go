package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Int64 is an int64 that can unmarshal from JSON number or string. The
// portal is inconsistent about numeric fields across deployments.
type Int64 int64

func (i *Int64) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*i = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*i = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("parse int64 from %q: %w", s, err)
		}
		*i = Int64(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("parse int64 from %q: %w", n.String(), err)
	}
	*i = Int64(v)
	return nil
}

// Folder is a top-level container in the user's content. The portal models a
// single level only; folders never nest.
type Folder struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Item struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Name     string `json:"name"`
	Access   string `json:"access"`
	Owner    string `json:"owner"`
	Size     Int64  `json:"size"`
	Modified Int64  `json:"modified"` // epoch milliseconds
}

// ContentListing is the response of the user/folder content endpoint.
type ContentListing struct {
	Username string   `json:"username,omitempty"`
	Folders  []Folder `json:"folders,omitempty"`
	Items    []Item   `json:"items"`
}

// InfoResponse carries the discovery document; only the token service URL is
// contract-relevant.
type InfoResponse struct {
	AuthInfo struct {
		TokenServicesURL string `json:"tokenServicesUrl"`
	} `json:"authInfo"`
}

type TokenResponse struct {
	Token   string `json:"token"`
	Expires Int64  `json:"expires"` // epoch milliseconds
}

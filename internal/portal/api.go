package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
)

const formatPJSON = "pjson"

// Info fetches the portal discovery document.
func (c *Client) Info(ctx context.Context) (InfoResponse, error) {
	params := url.Values{}
	params.Set("f", formatPJSON)
	b, err := c.get(ctx, c.BaseURL+"/sharing/rest/info", params)
	if err != nil {
		return InfoResponse{}, err
	}
	var info InfoResponse
	if err := json.Unmarshal(b, &info); err != nil {
		return InfoResponse{}, fmt.Errorf("parse info response: %w", err)
	}
	return info, nil
}

// GenerateToken exchanges credentials for a bearer token at the token
// service URL obtained from Info. The referer must match what later calls
// present, so the portal base URL is sent.
func (c *Client) GenerateToken(ctx context.Context, tokenURL, username, password string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("referer", c.BaseURL)
	form.Set("f", formatPJSON)
	b, err := c.postForm(ctx, tokenURL, form)
	if err != nil {
		return TokenResponse{}, err
	}
	var tok TokenResponse
	if err := json.Unmarshal(b, &tok); err != nil {
		return TokenResponse{}, fmt.Errorf("parse token response: %w", err)
	}
	return tok, nil
}

// ListContent lists the folders and items of a user's root, or the items of
// one folder when folderID is non-empty.
func (c *Client) ListContent(ctx context.Context, username, folderID, token string) (ContentListing, error) {
	params := url.Values{}
	params.Set("token", token)
	params.Set("f", formatPJSON)
	b, err := c.get(ctx, c.userContentURL(username, folderID), params)
	if err != nil {
		return ContentListing{}, err
	}
	var listing ContentListing
	if err := json.Unmarshal(b, &listing); err != nil {
		return ContentListing{}, fmt.Errorf("parse content listing: %w", err)
	}
	return listing, nil
}

// ItemInfo returns an item's metadata as opaque JSON for display.
func (c *Client) ItemInfo(ctx context.Context, itemID, token string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("token", token)
	params.Set("f", formatPJSON)
	return c.get(ctx, c.BaseURL+"/sharing/rest/content/items/"+url.PathEscape(itemID), params)
}

// ItemData streams an item's raw payload. The caller must close the reader.
func (c *Client) ItemData(ctx context.Context, itemID, token string) (io.ReadCloser, error) {
	params := url.Values{}
	params.Set("token", token)
	params.Set("f", formatPJSON)
	return c.getStream(ctx, c.BaseURL+"/sharing/rest/content/items/"+url.PathEscape(itemID)+"/data", params)
}

// CreateFolder creates a top-level folder and returns the raw response.
func (c *Client) CreateFolder(ctx context.Context, username, title, token string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("title", title)
	form.Set("token", token)
	form.Set("f", formatPJSON)
	return c.postForm(ctx, c.userContentURL(username, "")+"/createFolder", form)
}

// DeleteFolder deletes a folder by ID and returns the raw response.
func (c *Client) DeleteFolder(ctx context.Context, username, folderID, token string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("token", token)
	form.Set("f", formatPJSON)
	return c.postForm(ctx, c.userContentURL(username, folderID)+"/delete", form)
}

// Upload is a file attachment for AddItem/UpdateItem. FileName and
// ContentType end up in the multipart part headers.
type Upload struct {
	FieldName   string
	FileName    string
	ContentType string
	Reader      io.Reader
}

// AddItem creates an item in the given folder (or the root when folderID is
// empty). fields are forwarded verbatim on top of token/f; files switch the
// request to multipart.
func (c *Client) AddItem(ctx context.Context, username, folderID, token string, fields map[string]string, files []Upload) (json.RawMessage, error) {
	return c.postFields(ctx, c.userContentURL(username, folderID)+"/addItem", token, fields, files)
}

// UpdateItem updates an existing item in place.
func (c *Client) UpdateItem(ctx context.Context, username, folderID, itemID, token string, fields map[string]string, files []Upload) (json.RawMessage, error) {
	u := c.userContentURL(username, folderID) + "/items/" + url.PathEscape(itemID) + "/update"
	return c.postFields(ctx, u, token, fields, files)
}

// DeleteItem deletes an item and returns the raw response.
func (c *Client) DeleteItem(ctx context.Context, username, folderID, itemID, token string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("token", token)
	form.Set("f", formatPJSON)
	u := c.userContentURL(username, folderID) + "/items/" + url.PathEscape(itemID) + "/delete"
	return c.postForm(ctx, u, form)
}

func (c *Client) postFields(ctx context.Context, rawURL, token string, fields map[string]string, files []Upload) ([]byte, error) {
	form := url.Values{}
	form.Set("token", token)
	form.Set("f", formatPJSON)
	for k, v := range fields {
		form.Set(k, v)
	}
	if len(files) == 0 {
		return c.postForm(ctx, rawURL, form)
	}
	return c.postMultipart(ctx, rawURL, form, files)
}

func (c *Client) postMultipart(ctx context.Context, rawURL string, form url.Values, files []Upload) ([]byte, error) {
	var buf strings.Builder
	mw := multipart.NewWriter(&buf)
	for k := range form {
		if err := mw.WriteField(k, form.Get(k)); err != nil {
			return nil, err
		}
	}
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.FieldName, f.FileName))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr.Set("Content-Type", ct)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("read upload %s: %w", f.FieldName, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, "POST", rawURL, nil, strings.NewReader(buf.String()), mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

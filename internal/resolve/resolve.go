// Package resolve maps Unix-like "folder/item" paths onto the portal's flat
// ID addressing by querying content listings.
package resolve

import (
	"context"
	"strings"

	"agtool/internal/portal"
)

// ContentLister is the one portal capability the resolver needs. folderID ""
// lists the root.
type ContentLister interface {
	ListContent(ctx context.Context, folderID string) (portal.ContentListing, error)
}

type Kind int

const (
	KindFolder Kind = iota
	KindItem
)

// NotFoundError reports a missing folder or item, carrying the
// human-readable path for messages.
type NotFoundError struct {
	Kind Kind
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Kind == KindFolder {
		return e.Path + ": No such folder."
	}
	return e.Path + ": No such item."
}

// FolderRef is the outcome of folder resolution. An empty ID with an empty
// Title means the root; an empty ID with a non-empty Title means not found.
type FolderRef struct {
	Title string
	ID    string
}

// ItemRef is the outcome of item resolution. ItemID is empty when the item
// does not exist; Path is "folder/item" or a bare item title for the root.
type ItemRef struct {
	FolderTitle string
	FolderID    string
	ItemTitle   string
	ItemID      string
	Path        string
}

// SplitItemPath cracks "[/][folder/]item" into folder and item titles. The
// split is on the last slash, so intermediate slashes belong to the folder
// portion.
func SplitItemPath(path string) (folderTitle, itemTitle string) {
	path = strings.TrimPrefix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// SplitFolderPath strips one leading slash and nothing else.
func SplitFolderPath(path string) (folderTitle string) {
	return strings.TrimPrefix(path, "/")
}

type Resolver struct {
	Lister ContentLister
}

// ResolveFolder resolves a folder path to its ID. An empty title is the root
// and is not an error; a missing folder yields an empty ID and leaves the
// error decision to the caller.
func (r *Resolver) ResolveFolder(ctx context.Context, path string) (FolderRef, error) {
	ref := FolderRef{Title: SplitFolderPath(path)}
	if ref.Title == "" {
		return ref, nil
	}
	listing, err := r.Lister.ListContent(ctx, "")
	if err != nil {
		return ref, err
	}
	for _, f := range listing.Folders {
		if f.Title == ref.Title {
			ref.ID = f.ID
			break
		}
	}
	return ref, nil
}

// ResolveItem resolves "[folder/]item". The folder is resolved first; if a
// named folder does not exist, resolution stops with a folder NotFoundError
// and no item listing is requested. A missing item is not an error: ItemID
// stays empty so callers can distinguish create from update.
func (r *Resolver) ResolveItem(ctx context.Context, path string) (ItemRef, error) {
	folderTitle, itemTitle := SplitItemPath(path)
	ref := ItemRef{
		FolderTitle: folderTitle,
		ItemTitle:   itemTitle,
		Path:        itemTitle,
	}
	if folderTitle != "" {
		ref.Path = folderTitle + "/" + itemTitle
		folder, err := r.ResolveFolder(ctx, folderTitle)
		if err != nil {
			return ref, err
		}
		if folder.ID == "" {
			return ref, &NotFoundError{Kind: KindFolder, Path: ref.Path}
		}
		ref.FolderID = folder.ID
	}
	listing, err := r.Lister.ListContent(ctx, ref.FolderID)
	if err != nil {
		return ref, err
	}
	for _, it := range listing.Items {
		if it.Title == ref.ItemTitle {
			ref.ItemID = it.ID
			break
		}
	}
	return ref, nil
}

package main

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"agtool/internal/portal"
)

// contentTypeFor guesses an upload's MIME type from its filename. The
// explicit image cases cover systems with no MIME database.
func contentTypeFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	}
	return "application/octet-stream"
}

// buildUploads assembles the optional --file and --thumbnail attachments for
// update. The item's file upload is named after the item title; '-' streams
// stdin. The returned func closes any opened files.
func (a *app) buildUploads(itemTitle string) ([]portal.Upload, func(), error) {
	var files []portal.Upload
	var closers []*os.File
	closeAll := func() {
		for _, f := range closers {
			_ = f.Close()
		}
	}

	if path := a.args.Option("file"); path != "" {
		up := portal.Upload{FieldName: "file", FileName: itemTitle}
		if up.FileName == "" {
			up.FileName = filepath.Base(path)
		}
		up.ContentType = contentTypeFor(up.FileName)
		if path == "-" {
			up.Reader = a.stdin
		} else {
			f, err := os.Open(path)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, f)
			up.Reader = f
		}
		files = append(files, up)
	}

	if path := a.args.Option("thumbnail"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, f)
		files = append(files, portal.Upload{
			FieldName:   "thumbnail",
			FileName:    filepath.Base(path),
			ContentType: contentTypeFor(path),
			Reader:      f,
		})
	}
	return files, closeAll, nil
}

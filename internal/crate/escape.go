package crate

import (
	"strings"

	"github.com/starford/metacrate/internal/models"
)

const upperhex = "0123456789ABCDEF"

// Escape turns a workspace path into a linked-data identifier. Every byte
// outside the URI-component unreserved set is percent-encoded; "/" and "."
// stay literal so the path structure remains readable. Escape is not
// idempotent: a "%" already in the input is encoded again.
func Escape(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		if unreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// EntryID is the @id of a scanned entry. Directory ids end in "/".
func EntryID(e models.FileEntry) string {
	id := Escape(e.Path)
	if e.IsDir() && !strings.HasSuffix(id, "/") {
		id += "/"
	}
	return id
}

// Package assets embeds the default word lists, one answers file and one
// accepted-guesses file per difficulty:
//
//	words/<difficulty>_answers.txt
//	words/<difficulty>_allowed.txt
//
// Blank lines and lines starting with "#" are ignored.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed words/*.txt
var files embed.FS

// Words returns the embedded word lists rooted at the words/ directory.
func Words() fs.FS {
	sub, err := fs.Sub(files, "words")
	if err != nil {
		panic(err)
	}
	return sub
}

package unrar

// Package file find.go contains the entry search and matching functions.

import (
	"cmp"
	"path"
	"slices"
	"strings"
)

// Find returns the first entry with the name. The match is case-insensitive as many
// RAR archives were created on Windows or MS-DOS file systems.
func Find(entries []Entry, name string) (Entry, bool) {
	i := slices.IndexFunc(entries, func(e Entry) bool {
		return strings.EqualFold(e.Name(), name)
	})
	if i < 0 {
		return nil, false
	}
	return entries[i], true
}

// Files returns the entries that are files and can be extracted.
func Files(entries []Entry) []Entry {
	return slices.DeleteFunc(slices.Clone(entries), func(e Entry) bool {
		return !e.IsFile()
	})
}

// Finds are a collection of matched entries and their usability ranking.
type Finds map[string]Usability

// BestMatch returns the most usable name from a collection of finds.
// Names of equal usability are sorted alphabetically.
func (f Finds) BestMatch() string {
	if len(f) == 0 {
		return ""
	}
	type match struct {
		Name      string
		Usability Usability
	}
	matches := make([]match, 0, len(f))
	for k, v := range f {
		matches = append(matches, match{k, v})
	}
	slices.SortStableFunc(matches, func(a, b match) int {
		if c := cmp.Compare(a.Usability, b.Usability); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return matches[0].Name
}

// Readme returns the best matching scene text README or NFO file entry.
// The archive is the name of the archive file, and the entries are its listed content.
// Directory entries are ignored and false is returned when nothing matches.
func Readme(archive string, entries ...Entry) (Entry, bool) {
	finds := make(Finds)
	base := strings.ToLower(strings.TrimSuffix(path.Base(archive), path.Ext(archive)))
	for _, e := range Files(entries) {
		name := strings.ToLower(path.Base(e.Name()))
		switch path.Ext(name) {
		case diz, nfo, txt:
			// okay
		default:
			continue
		}
		finds = matchs(e.Name(), name, base, finds)
	}
	return Find(entries, finds.BestMatch())
}

const (
	diz = ".diz"
	nfo = ".nfo"
	txt = ".txt"
)

func matchs(file, name, base string, finds Finds) Finds {
	ext := path.Ext(name)
	switch {
	case name == base+nfo:
		// [archive name].nfo
		finds[file] = Lvl1
	case name == base+txt:
		// [archive name].txt
		finds[file] = Lvl2
	case ext == nfo:
		// [random].nfo
		finds[file] = Lvl3
	case name == "file_id.diz":
		// BBS file description
		finds[file] = Lvl4
	case name == base+diz:
		// [archive name].diz
		finds[file] = Lvl5
	case ext == txt:
		// [random].txt
		finds[file] = Lvl6
	case ext == diz:
		// [random].diz
		finds[file] = Lvl7
	}
	return finds
}

// Usability of search, filename pattern matches.
type Usability uint

const (
	// Lvl1 is the highest usability.
	Lvl1 Usability = iota + 1
	Lvl2
	Lvl3
	Lvl4
	Lvl5
	Lvl6
	Lvl7 // Lvl7 is the least usable.
)

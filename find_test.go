package unrar_test

import (
	"fmt"
	"testing"

	"github.com/Defacto2/unrar"
	"github.com/stretchr/testify/assert"
)

func files(names ...string) []unrar.Entry {
	list := make([]unrar.Entry, 0, len(names))
	for _, name := range names {
		list = append(list, unrar.Entry{unrar.KeyName: name, unrar.KeyType: unrar.TypeFile})
	}
	return list
}

func ExampleReadme() {
	entry, _ := unrar.Readme("APP.RAR", files("APP.EXE", "APP.TXT",
		"APP.BIN", "APP.DAT", "STUFF.DAT")...)
	fmt.Println(entry.Name())
	// Output: APP.TXT
}

func TestReadme(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		filename string
		files    []string
		want     string
	}{
		{"NFO #1", "APP.RAR", []string{"APP.EXE", "APP.NFO"}, "APP.NFO"},
		{"TXT #1", "APP.RAR", []string{"APP.EXE", "APP.TXT"}, "APP.TXT"},
		{"NFO #2", "APP.RAR", []string{"APP.EXE", "STUFF.NFO"}, "STUFF.NFO"},
		{"DIZ #1", "APP.RAR", []string{"APP.EXE", "FILE_ID.DIZ", "APP.DIZ"}, "FILE_ID.DIZ"},
		{"DIZ #2", "APP.RAR", []string{"APP.EXE", "APP.DIZ"}, "APP.DIZ"},
		{"TXT #2", "APP.RAR", []string{"APP.EXE", "STUFF.TXT"}, "STUFF.TXT"},
		{"DIZ #3", "APP.RAR", []string{"APP.EXE", "STUFF.DIZ"}, "STUFF.DIZ"},
		{"Subdirectory", "app.rar", []string{"docs/app.nfo", "readme.txt"}, "docs/app.nfo"},
		{"Ties", "APP.RAR", []string{"B.TXT", "A.TXT"}, "A.TXT"},
		{"None", "APP.RAR", []string{"APP.EXE", "STUFF.DAT"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := unrar.Readme(tt.filename, files(tt.files...)...)
			assert.Equal(t, tt.want != "", ok)
			assert.Equal(t, tt.want, got.Name())
		})
	}
}

func TestReadme_Directory(t *testing.T) {
	t.Parallel()
	list := []unrar.Entry{
		{unrar.KeyName: "APP.NFO", unrar.KeyType: "Directory"},
		{unrar.KeyName: "STUFF.TXT", unrar.KeyType: unrar.TypeFile},
	}
	got, ok := unrar.Readme("APP.RAR", list...)
	assert.True(t, ok)
	assert.Equal(t, "STUFF.TXT", got.Name())
}

func TestFind(t *testing.T) {
	t.Parallel()
	list := files("readme.txt", "Docs/Manual.TXT")
	got, ok := unrar.Find(list, "docs/manual.txt")
	assert.True(t, ok)
	assert.Equal(t, "Docs/Manual.TXT", got.Name())

	got, ok = unrar.Find(list, "missing.txt")
	assert.False(t, ok)
	assert.Nil(t, got)

	_, ok = unrar.Find(nil, "")
	assert.False(t, ok)
}

func TestFiles(t *testing.T) {
	t.Parallel()
	list := []unrar.Entry{
		{unrar.KeyName: "docs", unrar.KeyType: "Directory"},
		{unrar.KeyName: "docs/a.txt", unrar.KeyType: unrar.TypeFile},
		{unrar.KeyName: "link", unrar.KeyType: "Symbolic link"},
	}
	got := unrar.Files(list)
	assert.Len(t, got, 1)
	assert.Equal(t, "docs/a.txt", got[0].Name())
	assert.Len(t, list, 3, "the listing must not change")
}

func TestFinds_BestMatch(t *testing.T) {
	t.Parallel()
	assert.Empty(t, unrar.Finds{}.BestMatch())
	f := unrar.Finds{"b.txt": unrar.Lvl6, "a.nfo": unrar.Lvl3, "c.nfo": unrar.Lvl3}
	assert.Equal(t, "a.nfo", f.BestMatch())
}

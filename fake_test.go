package unrar_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Defacto2/helper"
	"github.com/stretchr/testify/require"
)

// The tests replace the unrar program with shell scripts that print the same
// console text. Tests that run a fake program are not parallel, as a fork while
// another test holds a new script open for writing fails with "text file busy".

// listing is the technical listing printed by "unrar vt -idc -v" for test.rar,
// an archive holding test.txt with the content "test".
const listing = `
Archive: test.rar
Details: RAR 5

        Name: test.txt
        Type: File
        Size: 4
 Packed size: 4
       Ratio: 100%
       mtime: 2020-05-20 10:10:10,000000000
  Attributes: -rw-r--r--
       CRC32: D87F7E0C
     Host OS: Unix
 Compression: RAR 5.0(v50) -m0 -md=128K

`

// fakeUnrar writes an executable shell script and returns its path. The script
// saves its arguments, one per line, to the args file in the same directory.
func fakeUnrar(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("the fake unrar program is a POSIX shell script")
	}
	name := filepath.Join(t.TempDir(), "unrar")
	body := "#!/bin/sh\nprintf '%s\\n' \"$@\" > \"$(dirname \"$0\")/args\"\n" + script + "\n"
	err := os.WriteFile(name, []byte(body), 0o755)
	require.NoError(t, err)
	return name
}

// fakeListing returns a fake program that prints out for the vt command and
// runs script for every other command.
func fakeListing(t *testing.T, out, script string) string {
	t.Helper()
	return fakeUnrar(t, "if [ \"$1\" = vt ]; then\ncat <<'LISTING'\n"+out+"LISTING\nexit 0\nfi\n"+script)
}

// args returns the arguments saved by the last run of the fake program.
func args(t *testing.T, prog string) []string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(filepath.Dir(prog), "args"))
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

// ran returns true if the fake program was started.
func ran(prog string) bool {
	_, err := os.Stat(filepath.Join(filepath.Dir(prog), "args"))
	return err == nil
}

// source returns an empty archive file with the named base name.
func source(t *testing.T, name string) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), name)
	require.NoError(t, helper.Touch(src))
	return src
}

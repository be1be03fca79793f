package unrar

import (
	"regexp"
	"strconv"
	"strings"
)

// Entry is one member of an archive, parsed from a record of the unrar technical listing.
// The keys are the normalized field names, such as "name", "size", "packedSize" or "hostOS",
// and the values are the trimmed text printed by unrar.
type Entry map[string]string

// Normalized keys of an [Entry].
const (
	KeyName        = "name"
	KeyType        = "type"
	KeySize        = "size"
	KeyPackedSize  = "packedSize"
	KeyRatio       = "ratio"
	KeyMTime       = "mtime"
	KeyAttributes  = "attributes"
	KeyCRC32       = "crc32"
	KeyCRC32Mac    = "crc32Mac"
	KeyHostOS      = "hostOS"
	KeyCompression = "compression"
	KeyFlags       = "flags"
)

// TypeFile is the only entry type that can be extracted.
const TypeFile = "File"

// Name returns the name of the entry within the archive.
func (e Entry) Name() string { return e[KeyName] }

// Type returns the entry type, such as "File" or "Directory".
func (e Entry) Type() string { return e[KeyType] }

// IsFile returns true if the entry is a file that can be extracted.
func (e Entry) IsFile() bool { return e[KeyType] == TypeFile }

// CRC32 returns the checksum printed by unrar.
func (e Entry) CRC32() string { return e[KeyCRC32] }

// Size returns the uncompressed size of the entry in bytes.
func (e Entry) Size() (int64, error) {
	return parseSize(e[KeySize])
}

// PackedSize returns the compressed size of the entry in bytes.
func (e Entry) PackedSize() (int64, error) {
	return parseSize(e[KeyPackedSize])
}

func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, ErrSize
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, ErrSize
	}
	return n, nil
}

// keyNames maps the lower-case labels of the unrar technical listing to entry keys.
var keyNames = map[string]string{
	"name":        KeyName,
	"type":        KeyType,
	"size":        KeySize,
	"packed size": KeyPackedSize,
	"ratio":       KeyRatio,
	"mtime":       KeyMTime,
	"attributes":  KeyAttributes,
	"crc32":       KeyCRC32,
	"crc32 mac":   KeyCRC32Mac,
	"host os":     KeyHostOS,
	"compression": KeyCompression,
	"flags":       KeyFlags,
}

// normalizeKey lower-cases the label and maps it through the key table.
// Unknown labels are returned lower-cased without their leading whitespace.
func normalizeKey(label string) string {
	s := strings.TrimLeft(strings.ToLower(label), " \t")
	if key, ok := keyNames[s]; ok {
		return key
	}
	return s
}

var (
	recordSep = regexp.MustCompile(`\r?\n\r?\n`)
	lineSep   = regexp.MustCompile(`\r?\n`)
)

// entries parses the output of the unrar technical listing command.
func entries(out string) []Entry {
	//
	// Archive: test.rar
	// Details: RAR 5
	//
	//         Name: test.txt
	//         Type: File
	//         Size: 4
	//  Packed size: 4
	//        Ratio: 100%
	//        mtime: 2020-05-20 10:10:10,000000000
	//   Attributes: -rw-r--r--
	//        CRC32: D87F7E0C
	//      Host OS: Unix
	//  Compression: RAR 5.0(v50) -m0 -md=128K
	//
	list := []Entry{}
	for _, record := range recordSep.Split(out, -1) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		e := Entry{}
		for _, line := range lineSep.Split(record, -1) {
			label, val, found := strings.Cut(line, ": ")
			if !found {
				continue
			}
			key := normalizeKey(label)
			if key == "" {
				continue
			}
			e[key] = strings.TrimSpace(val)
		}
		if e.Name() == "" {
			continue
		}
		list = append(list, e)
	}
	return list
}

package unrar

// Package file parse.go contains the marker and progress scanners for the
// unrar console output.

import (
	"bytes"
	"regexp"
	"strconv"
)

// Markers printed by unrar.
const (
	markNotRAR    = "is not RAR archive"
	markIncorrect = "The specified password is incorrect"
)

var (
	progressRe = regexp.MustCompile(`[0-9]+%`)
	promptRe   = regexp.MustCompile(`Enter password \(will not be echoed\)`)
)

// Progress returns the first percentage token in the chunk, such as "45%".
// A chunk without a run of digits followed by a percent sign returns false.
func Progress(chunk []byte) (string, bool) {
	b := progressRe.Find(chunk)
	if b == nil {
		return "", false
	}
	return string(b), true
}

// NotArchive returns true if the chunk contains the unrar message
// for a source that is not a RAR archive.
func NotArchive(chunk []byte) bool {
	return bytes.Contains(chunk, []byte(markNotRAR))
}

// PasswordFailure returns true if the chunk contains the unrar message for an
// incorrect password or the prompt asking for a password to be entered.
func PasswordFailure(chunk []byte) bool {
	if bytes.Contains(chunk, []byte(markIncorrect)) {
		return true
	}
	return promptRe.Match(chunk)
}

// percent returns the numeric value of a progress token.
func percent(token string) int {
	n, err := strconv.Atoi(token[:len(token)-1])
	if err != nil {
		return -1
	}
	return n
}

// chunkScanner scans consecutive chunks of a stream that are not aligned to
// line boundaries. It carries the trailing digits of one chunk into the next so
// a token split as "4" and "5%" is read as "45%", and it carries enough of the
// tail to find a marker split across two chunks.
//
// Digits are only carried when they follow a separator and could begin a
// percentage, and they are only joined when the result is at most 100%. The
// digits that end a filename such as "track01" or "2023" are never joined to
// the next percentage.
type chunkScanner struct {
	digits []byte
	tail   []byte
	lead   byte // byte before the carried digits, or the last byte scanned
}

// scan returns the progress token and the not archive state of the chunk.
func (s *chunkScanner) scan(chunk []byte) (string, bool) {
	joined := append(s.tail, chunk...)
	notRAR := NotArchive(joined)
	keep := min(len(joined), len(markNotRAR)-1)
	s.tail = append([]byte(nil), joined[len(joined)-keep:]...)

	token := s.join(chunk)
	if token == "" {
		token, _ = Progress(chunk)
	}
	p := chunk
	if len(trailingDigits(chunk)) == len(chunk) {
		p = append(s.digits, chunk...)
	}
	s.carry(p)
	return token, notRAR
}

// join returns the token made of the carried digits and the digits and percent
// sign that begin the chunk, or an empty string when they do not form a percentage.
func (s *chunkScanner) join(chunk []byte) string {
	if len(s.digits) == 0 {
		return ""
	}
	i := 0
	for i < len(chunk) && chunk[i] >= '0' && chunk[i] <= '9' {
		i++
	}
	if i == len(chunk) || chunk[i] != '%' {
		return ""
	}
	token := string(s.digits) + string(chunk[:i+1])
	if len(token) > len("100%") || percent(token) > 100 {
		return ""
	}
	return token
}

// carry keeps the trailing digits of p for the next scan.
func (s *chunkScanner) carry(p []byte) {
	s.digits = nil
	if len(p) == 0 {
		return
	}
	run := trailingDigits(p)
	start := len(p) - len(run)
	lead := s.lead
	if start > 0 {
		lead = p[start-1]
	}
	if len(run) > 0 && len(run) < len("100%") && separator(lead) {
		s.digits = append([]byte(nil), run...)
		s.lead = lead
		return
	}
	s.lead = p[len(p)-1]
}

// separator returns true for the bytes that unrar prints before a percentage,
// the zero value stands for the start of the stream.
func separator(b byte) bool {
	switch b {
	case 0, ' ', '\b', '\t', '\r', '\n', '%':
		return true
	}
	return false
}

// trailingDigits returns the run of ASCII digits at the end of p.
func trailingDigits(p []byte) []byte {
	i := len(p)
	for i > 0 && p[i-1] >= '0' && p[i-1] <= '9' {
		i--
	}
	return p[i:]
}

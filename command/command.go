// Package command names the unrar program, its command verbs and the switches
// this module passes to it.
package command

// A note about unrar: On Linux there are incompatible variants of unrar.
// This module cannot use the common unrar-free application. It unfortunately, is
// incomplete and does not print the technical listing or the progress percentages
// that the parsers depend on.
//
// When used on Linux, the unrar application should provide the following copyright:
// "UNRAR 6.24 freeware, Copyright (c) 1993-2023 Alexander Roshal".

// Unrar is the rar decompression command.
const Unrar = "unrar"

// Command verbs, the first argument given to unrar.
const (
	Extract     = "x"  // Extract files with full path.
	ExtractFlat = "e"  // ExtractFlat extracts files without archived paths.
	Print       = "p"  // Print the file content to stdout.
	ListTech    = "vt" // ListTech verbosely lists the archive with technical information.
)

// Switches, the options given to unrar after the command verb.
const (
	Password      = "-p"    // Password prefix, followed by the password, -p<pwd>.
	NoPassword    = "-p-"   // NoPassword does not query a password.
	FileName      = "-n"    // FileName prefix, restricts the command to one entry, -n<name>.
	Comments      = "-idc"  // Comments disables the copyright header and comment messages.
	Quiet         = "-idq"  // Quiet disables all messages but errors.
	CopyrightDone = "-idcd" // CopyrightDone disables the copyright header and the final "Done".
	Overwrite     = "-o+"   // Overwrite existing files.
	Volumes       = "-v"    // Volumes lists every volume of a multi-volume archive.
)

// Placeholder is the password given to unrar when none is configured.
// Without a password switch unrar prompts on the console, which cannot be
// answered as stdin is always closed.
const Placeholder = Password + "1"

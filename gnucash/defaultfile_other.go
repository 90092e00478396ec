//go:build !linux

package gnucash

// DefaultFile returns the last file opened by GnuCash. It is only known on
// linux.
func DefaultFile() (string, bool) { return "", false }

package gnucash

import (
	"bufio"
	"strings"
)

// lastOpened returns the most recent file of a GnuCash history, as printed by
// "dconf dump /org/gnucash/GnuCash/history/".
func lastOpened(history string) (string, bool) {
	s := bufio.NewScanner(strings.NewReader(history))
	for s.Scan() {
		v, ok := strings.CutPrefix(strings.TrimSpace(s.Text()), "file0=")
		if !ok {
			continue
		}
		v = strings.Trim(v, `'"`)
		return v, v != ""
	}
	return "", false
}

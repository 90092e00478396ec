package gnucash

import (
	"context"
	"os/exec"
	"time"
)

// DefaultFile returns the last file opened by GnuCash, if any.
func DefaultFile() (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "dconf", "dump", "/org/gnucash/GnuCash/history/").Output()
	if err != nil {
		return "", false
	}
	return lastOpened(string(out))
}

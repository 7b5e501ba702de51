// Package textutil holds the small source-maintenance rewrites shipped as
// `askgate text` subcommands.
package textutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// invitePattern matches a Discord invite link.
var invitePattern = regexp.MustCompile(`https://discord\.gg/[A-Za-z0-9-]+`)

var inviteCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// StripLineComments drops every line whose trimmed form starts with
// prefix (usually "//"). Other lines, including trailing comments after
// code, are kept byte for byte. It returns the new text and the number of
// lines removed.
func StripLineComments(src, prefix string) (string, int) {
	if prefix == "" {
		return src, 0
	}
	lines := strings.SplitAfter(src, "\n")
	var b strings.Builder
	b.Grow(len(src))
	removed := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			removed++
			continue
		}
		b.WriteString(line)
	}
	return b.String(), removed
}

// ReplaceInviteLinks points every Discord invite link in src at newCode.
// It returns the new text and the number of links replaced.
func ReplaceInviteLinks(src, newCode string) (string, int, error) {
	newCode = strings.TrimPrefix(newCode, "https://discord.gg/")
	if !inviteCodePattern.MatchString(newCode) {
		return "", 0, fmt.Errorf("invalid invite code %q", newCode)
	}
	n := len(invitePattern.FindAllStringIndex(src, -1))
	if n == 0 {
		return src, 0, nil
	}
	return invitePattern.ReplaceAllLiteralString(src, "https://discord.gg/"+newCode), n, nil
}

// RewriteFile applies fn to the file at path and writes the result back
// atomically, preserving the file mode. Nothing is written when fn reports
// zero changes. The change count is returned.
func RewriteFile(path string, fn func(string) (string, int, error)) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	out, n, err := fn(string(data))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if n == 0 {
		return 0, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(out); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, err
	}
	return n, nil
}

//go:build linux

package mount

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSysfs indicates that no sysfs mount was found in mountinfo.
var ErrNoSysfs = errors.New("mount: sysfs is not mounted")

// damonAdmin is the DAMON admin directory relative to the sysfs mount point.
const damonAdmin = "kernel/mm/damon/admin"

// Mount is one line of mountinfo.
type Mount struct {
	Point  string
	FSType string
	Source string
}

// InfoPath returns the mountinfo file to read. The MOUNTINFO env var
// overrides it (useful for testing).
func InfoPath() string {
	if p := os.Getenv("MOUNTINFO"); p != "" {
		return p
	}
	return "/proc/self/mountinfo"
}

// Parse reads mountinfo lines from r.
//
// The line format has a " - " separator; the mount point is field 5 of the
// part before it and the fstype and source are the first two fields after it.
// Ref: man 5 proc. Lines that do not match are skipped.
func Parse(r io.Reader) ([]Mount, error) {
	var (
		mounts []Mount
		sc     = bufio.NewScanner(r)
	)
	for sc.Scan() {
		line := sc.Text()
		sep := " - "
		i := strings.LastIndex(line, sep)
		if i < 0 {
			continue
		}
		tail := strings.Fields(line[i+len(sep):])
		if len(tail) < 1 {
			continue
		}
		pre := strings.Fields(line[:i])
		if len(pre) < 5 {
			continue
		}
		m := Mount{Point: unescape(pre[4]), FSType: tail[0]}
		if len(tail) > 1 {
			m.Source = tail[1]
		}
		mounts = append(mounts, m)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan mountinfo: %w", err)
	}
	return mounts, nil
}

// Read parses the mountinfo file at InfoPath.
func Read() ([]Mount, error) {
	f, err := os.Open(InfoPath())
	if err != nil {
		return nil, fmt.Errorf("open mountinfo: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Parse(f)
}

// Find returns the first mount point of the given fstype.
func Find(mounts []Mount, fstype string) (string, bool) {
	for _, m := range mounts {
		if m.FSType == fstype {
			return m.Point, true
		}
	}
	return "", false
}

// DamonAdminRoot returns the DAMON sysfs admin directory below the first
// sysfs mount. It does not check that the directory exists.
func DamonAdminRoot(mounts []Mount) (string, error) {
	point, ok := Find(mounts, "sysfs")
	if !ok {
		return "", ErrNoSysfs
	}
	return filepath.Join(point, damonAdmin), nil
}

// unescape undoes the octal escaping mountinfo applies to space, tab,
// newline and backslash in paths.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			c := (s[i+1] - '0') * 64
			c += (s[i+2] - '0') * 8
			c += s[i+3] - '0'
			b.WriteByte(c)
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

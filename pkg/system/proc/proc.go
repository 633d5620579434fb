//go:build linux

package proc

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ja7ad/damonctl/pkg/types"
)

// Root returns the procfs mount point. The PROC_ROOT env var overrides it
// (useful for testing).
func Root() string {
	if r := os.Getenv("PROC_ROOT"); r != "" {
		return r
	}
	return "/proc"
}

// PageSize returns the system memory page size in bytes.
// It first checks an env override (PAGE_SIZE) to ease testing, then falls
// back to os.Getpagesize().
func PageSize() int {
	if ps := os.Getenv("PAGE_SIZE"); ps != "" {
		if v, _ := strconv.Atoi(ps); v > 0 {
			return v
		}
	}
	return os.Getpagesize()
}

func pidPath(pid int, name ...string) string {
	return filepath.Join(append([]string{Root(), strconv.Itoa(pid)}, name...)...)
}

// Exists reports whether a given PID currently exists.
// It checks if <proc>/<pid> is a directory.
func Exists(pid int) bool {
	if pid <= 0 {
		return false
	}
	st, err := os.Stat(pidPath(pid))
	return err == nil && st.IsDir()
}

// Comm returns the command name of pid from <proc>/<pid>/comm.
func Comm(pid int) (string, error) {
	b, err := os.ReadFile(pidPath(pid, "comm"))
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(string(b))
	if name == "" {
		return "", ErrNoComm
	}
	return name, nil
}

// Process is what status output shows about a target process.
type Process struct {
	PID  int
	Comm string
	// RSS is zero when the resident size could not be read.
	RSS types.Bytes
}

// Describe reads the command name and resident size of pid. Only a missing
// or empty comm is an error.
func Describe(pid int) (Process, error) {
	comm, err := Comm(pid)
	if err != nil {
		return Process{PID: pid}, err
	}
	p := Process{PID: pid, Comm: comm}
	if rss, err := residentBytes(pid); err == nil {
		p.RSS = rss
	}
	return p, nil
}

func (p Process) String() string {
	s := strconv.Itoa(p.PID) + " " + p.Comm
	if p.RSS > 0 {
		s += " rss=" + p.RSS.Humanized()
	}
	return s
}

// residentBytes reads VmRSS from <proc>/<pid>/status, falling back to the
// resident page count of statm.
func residentBytes(pid int) (types.Bytes, error) {
	if b, err := os.ReadFile(pidPath(pid, "status")); err == nil {
		for _, line := range strings.Split(string(b), "\n") {
			v, ok := strings.CutPrefix(line, "VmRSS:")
			if !ok {
				continue
			}
			// VmRSS:	    2048 kB
			kb, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(v), " kB"), 10, 64)
			if err == nil {
				return types.Bytes(kb << 10), nil
			}
		}
	}
	b, err := os.ReadFile(pidPath(pid, "statm"))
	if err != nil {
		return 0, ErrNoRSS
	}
	fs := strings.Fields(string(b))
	if len(fs) < 2 {
		return 0, ErrNoRSS
	}
	pages, err := strconv.ParseUint(fs[1], 10, 64)
	if err != nil {
		return 0, ErrNoRSS
	}
	return types.Bytes(pages * uint64(PageSize())), nil
}

// Mapping is one line of <proc>/<pid>/maps.
type Mapping struct {
	Start uint64
	End   uint64
	Perms string
	Path  string
}

// ReadMaps parses <proc>/<pid>/maps. Lines that do not parse are skipped.
func ReadMaps(pid int) ([]Mapping, error) {
	f, err := os.Open(pidPath(pid, "maps"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Mapping
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		// 55d0c3a00000-55d0c3a21000 rw-p 00000000 00:00 0    [heap]
		fs := strings.Fields(sc.Text())
		if len(fs) < 5 {
			continue
		}
		start, end, ok := strings.Cut(fs[0], "-")
		if !ok {
			continue
		}
		m := Mapping{Perms: fs[1]}
		if m.Start, err = strconv.ParseUint(start, 16, 64); err != nil {
			continue
		}
		if m.End, err = strconv.ParseUint(end, 16, 64); err != nil {
			continue
		}
		if len(fs) >= 6 {
			m.Path = strings.Join(fs[5:], " ")
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoMaps
	}
	return out, nil
}

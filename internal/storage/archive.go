// internal/storage/archive.go
//
// Local archive of uploaded PDFs with history.
//
// Layout
// ------
//
//	<root>/<siteID>/<kind>/latest.pdf
//	<root>/<siteID>/<kind>/history/YYYYMMDD_HHMMSS.pdf
//
// Before a new file becomes latest.pdf the previous one is moved into
// history/, so nothing is ever overwritten in place.  Two uploads within the
// same second get a numeric suffix.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Archive kinds.
const (
	KindSchedule = "schedule"
	KindDrawings = "drawings"
)

// Archive writes to a filesystem root.  A nil *Archive is disabled.
type Archive struct {
	fs   afero.Fs
	root string
	now  func() time.Time
}

// NewArchive returns nil when root is empty.
func NewArchive(fs afero.Fs, root string) *Archive {
	if strings.TrimSpace(root) == "" {
		return nil
	}
	return &Archive{fs: fs, root: root, now: time.Now}
}

// Saved reports where a file landed.  History is empty when there was no
// previous latest.pdf.
type Saved struct {
	Latest  string
	History string
}

// Save stores data as the latest file of (siteID, kind).
func (a *Archive) Save(siteID, kind string, data []byte) (Saved, error) {
	if a == nil {
		return Saved{}, nil
	}
	if !safeSegment(siteID) {
		return Saved{}, fmt.Errorf("archive: bad site id %q", siteID)
	}
	if kind != KindSchedule && kind != KindDrawings {
		return Saved{}, fmt.Errorf("archive: unknown kind %q", kind)
	}

	base := filepath.Join(a.root, siteID, kind)
	histDir := filepath.Join(base, "history")
	if err := a.fs.MkdirAll(histDir, 0o755); err != nil {
		return Saved{}, fmt.Errorf("archive mkdir: %w", err)
	}

	out := Saved{Latest: filepath.Join(base, "latest.pdf")}
	switch _, err := a.fs.Stat(out.Latest); {
	case err == nil:
		hist, err := a.freeName(histDir, a.now().Format("20060102_150405"))
		if err != nil {
			return Saved{}, err
		}
		if err := a.fs.Rename(out.Latest, hist); err != nil {
			return Saved{}, fmt.Errorf("archive rotate: %w", err)
		}
		out.History = hist
	case !errors.Is(err, os.ErrNotExist):
		return Saved{}, fmt.Errorf("archive stat: %w", err)
	}

	if err := afero.WriteFile(a.fs, out.Latest, data, 0o644); err != nil {
		return Saved{}, fmt.Errorf("archive write: %w", err)
	}
	return out, nil
}

// History lists archived file names of (siteID, kind), oldest first.
func (a *Archive) History(siteID, kind string) ([]string, error) {
	if a == nil || !safeSegment(siteID) {
		return nil, nil
	}
	infos, err := afero.ReadDir(a.fs, filepath.Join(a.root, siteID, kind, "history"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if !fi.IsDir() {
			names = append(names, fi.Name())
		}
	}
	return names, nil
}

func (a *Archive) freeName(dir, stem string) (string, error) {
	for i := 0; i < 100; i++ {
		name := stem + ".pdf"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.pdf", stem, i)
		}
		p := filepath.Join(dir, name)
		ok, err := afero.Exists(a.fs, p)
		if err != nil {
			return "", err
		}
		if !ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("archive: no free history name for %s", stem)
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

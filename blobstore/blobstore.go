// Package blobstore is the export core's random-access blob spool:
// blob content is written out once, keyed by a monotone serial, into a
// fan-out directory tree cheap enough for ext4-class filesystems to
// resolve without slow secondary allocations (export_init/blobfile in
// original_source/export.c). Wrap-up unlinks every blob in reverse
// serial order; see Store.Wrap for which directories it leaves behind.
package blobstore

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rlonstein/cvs-fast-export/diag"
)

// fanout bounds how many entries a spool directory holds before a new
// level is opened, chosen the same way export.c picks FANOUT: the
// largest directory size that doesn't slow secondary allocations down.
const fanout = 256

// maxSerial is this package's analog of MAX_SERIAL_T: once exceeded,
// Export refuses rather than silently wrapping.
const maxSerial = 1<<31 - 1

// CVSIgnores is CVS's built-in default .cvsignore body, reproduced
// byte-for-byte from CVS_IGNORES in original_source/export.c so a
// repository that never carried an explicit .cvsignore still gets the
// ignores CVS applied implicitly. Exported so package export can reuse
// the same literal for its one-shot .gitignore injection rather than
// duplicating it.
const CVSIgnores = "# CVS default ignores begin\n" +
	"tags\nTAGS\n.make.state\n.nse_depinfo\n*~\n#*\n.#*\n,*\n_$*\n*$\n" +
	"*.old\n*.bak\n*.BAK\n*.orig\n*.rej\n.del-*\n*.a\n*.olb\n*.o\n*.obj\n" +
	"*.so\n*.exe\n*.Z\n*.elc\n*.ln\ncore\n" +
	"# CVS default ignores end\n"

// Store is a temp-directory-backed blob spool. The zero value is not
// usable; construct with New.
type Store struct {
	dir      string
	seqno    int
	compress bool
	diag     *diag.Channel
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithCompression gzips each blob as it's written, trading a little
// CPU for fewer disk seeks on the replay side (the ZLIB path in
// export_blob).
func WithCompression() Option {
	return func(s *Store) { s.compress = true }
}

// WithDiag attaches a diagnostic channel for non-fatal spool notices.
func WithDiag(d *diag.Channel) Option {
	return func(s *Store) { s.diag = d }
}

// New creates a fresh spool directory under os.TempDir (or $TMPDIR)
// and returns a Store rooted there. A temp-dir creation failure is
// fatal: it signals resource exhaustion, not a data-quality issue.
func New(opts ...Option) (*Store, error) {
	dir, err := os.MkdirTemp("", "cvs-fast-export-*")
	if err != nil {
		return nil, diag.Fatalf("temp dir creation failed: %v", err)
	}
	s := &Store{dir: dir}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir is the spool's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Seqno reports how many blobs have been assigned a serial so far.
// The export package's commit exporter continues numbering commits
// from this point, since blobs and commits share one dense serial
// namespace.
func (s *Store) Seqno() int {
	return s.seqno
}

// Remove unlinks the on-disk blob for serial without touching its
// parent directory; directory cleanup happens in Wrap. This is the
// per-commit early unlink export_commit performs right after
// streaming a blob out for the first (and only) time.
func (s *Store) Remove(serial int) error {
	path, err := s.blobPath(serial, false)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// blobPath returns the fan-out path for serial, creating intermediate
// directories along the way when create is true (blobfile in export.c).
func (s *Store) blobPath(serial int, create bool) (string, error) {
	path := s.dir
	m := serial
	for {
		digit := m % fanout
		m = (m - digit) / fanout
		if m == 0 {
			path = filepath.Join(path, fmt.Sprintf("=%x", digit))
			break
		}
		path = filepath.Join(path, fmt.Sprintf("%x", digit))
		if create {
			if _, err := os.Stat(path); err != nil {
				if err := os.Mkdir(path, 0770); err != nil {
					return "", diag.Fatalf("blob subdir creation of %s failed: %v", path, err)
				}
			}
		}
	}
	return path, nil
}

// ignoreSuffix is the RCS master-file name export_blob recognizes to
// inject the implicit CVS ignore list.
const ignoreSuffix = ".cvsignore,v"

// Export writes data as the next blob in the spool and returns the
// serial it was assigned. name is the RCS master file path the blob
// came from, used only to detect the implicit .cvsignore case.
func (s *Store) Export(name string, data []byte) (int, error) {
	if s.seqno >= maxSerial {
		return 0, diag.Fatalf("snapshot sequence number too large, widen serial type")
	}
	s.seqno++
	serial := s.seqno

	path, err := s.blobPath(serial, true)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, diag.Fatalf("blobfile open: %v", err)
	}
	defer f.Close()

	var w io.Writer = f
	var gz *gzip.Writer
	if s.compress {
		gz = gzip.NewWriter(f)
		defer gz.Close()
		w = gz
	}

	extra := ""
	if strings.HasSuffix(name, ignoreSuffix) {
		extra = CVSIgnores
	}

	if _, err := fmt.Fprintf(w, "data %d\n", len(data)+len(extra)); err != nil {
		return 0, err
	}
	if extra != "" {
		if _, err := io.WriteString(w, extra); err != nil {
			return 0, err
		}
	}
	if _, err := w.Write(data); err != nil {
		return 0, err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return 0, err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return 0, err
		}
		gz = nil
	}
	return serial, nil
}

// Open returns a reader over the blob previously Export-ed as serial.
func (s *Store) Open(serial int) (io.ReadCloser, error) {
	path, err := s.blobPath(serial, false)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !s.compress {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	fErr := g.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

// Wrap unlinks every blob this Store created, in reverse serial order,
// then tries to remove the root itself (export_wrap in export.c). A
// subdirectory is removed only when its blob's leaf name is "=0", which
// no positive serial produces, so once serial 256 or higher has been
// assigned the fan-out subdirectories stay behind, empty, and the root
// is not removed; that failure is announced, not returned.
func (s *Store) Wrap() error {
	for s.seqno > 0 {
		path, err := s.blobPath(s.seqno, false)
		if err == nil {
			os.Remove(path)
			if strings.HasSuffix(filepath.Base(path), "=0") {
				os.Remove(filepath.Dir(path))
			}
		}
		s.seqno--
	}
	if err := os.Remove(s.dir); err != nil {
		if s.diag != nil {
			s.diag.Announce("%s: %v", s.dir, err)
		}
	}
	return nil
}

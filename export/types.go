// Package export is the export core's commit exporter and stream
// orchestrator: it takes an already-assembled CVS commit DAG (built
// upstream; out of scope here) and turns it into a canonically
// ordered git fast-import stream, following original_source/export.c's
// compute_parent_links/export_commit/export_commits family of
// functions.
package export

import (
	"github.com/rlonstein/cvs-fast-export/atom"
	"github.com/rlonstein/cvs-fast-export/cvsnumber"
)

// RevFile is one file at a specific revision, as it appears inside a
// single commit (rev_file in export.c). Once constructed, a RevFile is
// immutable: the parent/child pairing computed per commit lives in a
// side table (parentLinks), never on this struct.
type RevFile struct {
	Name   *atom.Atom
	Number cvsnumber.Number
	Exec   bool // execute bit; decides 100644 vs 100755 on emission
	Serial int  // index into the blob spool; assigned when the blob was spooled
}

// RevDir is a directory bucket of files within one commit. Files are
// expected to already be in canonical atom order, the responsibility
// of the upstream commit-graph builder (out of scope here).
type RevDir struct {
	Files []*RevFile
}

// Commit is one commit in the assembled DAG, after the upstream
// builder has linearized history into a single parent chain per
// branch (git_commit in export.c; the rev_commit/git_commit punning
// export.c used is moot in Go, so there is only this one type).
type Commit struct {
	Parent *Commit
	Date   int64 // unix seconds; RCS_EPOCH adjustment is the upstream parser's job
	Author string
	Email  string
	Tz     string // IANA zone name, or "" for UTC
	Log    string

	Dirs []*RevDir

	Tail bool // traversal boundary: do not follow Parent past this commit

	Bloom  atom.Bloom // union of every file's atom Bloom in this commit
	Serial int        // assigned when this commit is exported
}

// ComputeBloom recomputes c.Bloom as the union of every file atom's
// Bloom signature. Callers
// that build a Commit by hand (tests, the demo CLI fixture) must call
// this once Dirs is populated; ExportCommits does not do it for them,
// since the upstream builder owns commit construction.
func (c *Commit) ComputeBloom() {
	var b atom.Bloom
	for _, dir := range c.Dirs {
		for _, f := range dir.Files {
			b = b.Union(f.Name.Bloom())
		}
	}
	c.Bloom = b
}

// Branch is a named branch tip (rev_ref in export.c).
type Branch struct {
	Name   string
	Commit *Commit
	Tail   bool // true if ExportCommits skips this head when walking chains; it still gets a trailing reset

	realized bool // internal and unused: ExportCommits tracks realization on its per-commit history entries
}

// Tag pins a symbolic name to a commit.
type Tag struct {
	Name   string
	Commit *Commit
}

// mark is the per-serial bookkeeping export_commits keeps in markmap:
// the externally visible 1-based mark number, and whether the blob
// has already been streamed out.
type mark struct {
	external int
	emitted  bool
}

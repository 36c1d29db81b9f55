package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rlonstein/cvs-fast-export/blobstore"
	"github.com/rlonstein/cvs-fast-export/diag"
)

// Progress is the out-of-scope progress-meter collaborator;
// ExportCommits makes the same call sites progress_begin/progress_step/
// progress_jump/progress_end did in export.c, against this small
// interface, so a caller can plug in whatever meter it likes.
type Progress interface {
	Begin(label string, total int)
	Step()
	Jump(n int)
	End()
}

// NoProgress discards every call.
type NoProgress struct{}

func (NoProgress) Begin(string, int) {}
func (NoProgress) Step()             {}
func (NoProgress) Jump(int)          {}
func (NoProgress) End()              {}

// Options configures an Exporter. LocationFor is the injected
// timezone-database lookup; a nil value falls back to UTC for every
// commit.
type Options struct {
	BranchPrefix    string
	StripLen        int
	Reposurgeon     bool
	ForceDates      bool
	ForceDateStep   int64 // with ForceDates, a commit's date is its mark times 2*ForceDateStep
	BranchOrder     bool
	LocationFor     func(name string) (*time.Location, error)
}

// Exporter is the single-threaded context value that owns every piece
// of mutable state the original kept as C file-statics: the shared
// serial/mark counters, the mark map, the blob store handle, and the
// one-shot default-ignore flag.
type Exporter struct {
	store *blobstore.Store
	diag  *diag.Channel
	opts  Options

	seqno       int
	markCounter int
	marks       map[int]*mark
	needIgnores bool
}

// NewExporter builds an Exporter bound to store. store's own serial
// counter is assumed to already reflect every blob spooled during
// parsing; the Exporter continues the same dense namespace for
// commits, since blobs and commits share a single mark namespace.
func NewExporter(store *blobstore.Store, d *diag.Channel, opts Options) *Exporter {
	if opts.BranchPrefix == "" {
		opts.BranchPrefix = "refs/heads/"
	}
	if opts.ForceDateStep == 0 {
		opts.ForceDateStep = 1
	}
	return &Exporter{
		store:       store,
		diag:        d,
		opts:        opts,
		seqno:       store.Seqno(),
		marks:       make(map[int]*mark),
		needIgnores: true,
	}
}

func (e *Exporter) markFor(serial int) *mark {
	m, ok := e.marks[serial]
	if !ok {
		m = &mark{}
		e.marks[serial] = m
	}
	return m
}

func (e *Exporter) displayDate(commit *Commit, markNumber int) int64 {
	if e.opts.ForceDates {
		return int64(markNumber) * e.opts.ForceDateStep * 2
	}
	return commit.Date
}

func (e *Exporter) formatTimestamp(unixSec int64, tzName string) string {
	loc := time.UTC
	name := tzName
	if name == "" {
		name = "UTC"
	}
	if e.opts.LocationFor != nil {
		if l, err := e.opts.LocationFor(name); err == nil {
			loc = l
		} else if e.diag != nil {
			e.diag.Announce("unknown timezone %q, falling back to UTC: %v", name, err)
		}
	}
	t := time.Unix(unixSec, 0).In(loc)
	return fmt.Sprintf("%d %s", unixSec, t.Format("-0700"))
}

// ExportCommit exports one commit (and any blobs it is the first to
// reference) to w, following export_commit in export.c. report=false
// still consumes a mark slot but writes nothing, the incremental-skip
// path used by ExportCommits' from-time cutoff. revmap may be nil.
// Returns the mark assigned to this commit.
func (e *Exporter) ExportCommit(w io.Writer, commit *Commit, branch string, report bool, revmap io.Writer) (int, error) {
	var links *parentLinks
	if commit.Parent != nil {
		links = computeParentLinks(commit)
	}

	wantRevpairs := e.opts.Reposurgeon || revmap != nil
	ops, revpairs := buildFileops(commit, links, e.opts.StripLen, wantRevpairs)

	// Blob marks are assigned and blobs are flushed in build order,
	// matching export_commit's traversal (export.c lines 572-604); the
	// canonical path_deep_compare sort runs only afterward, below,
	// mirroring the qsort at export.c:607.
	for _, op := range ops {
		if op.Op != 'M' {
			continue
		}
		mk := e.markFor(op.Serial)
		if mk.emitted {
			continue
		}
		e.markCounter++
		mk.external = e.markCounter
		if report {
			if _, err := fmt.Fprintf(w, "blob\nmark :%d\n", mk.external); err != nil {
				return 0, err
			}
			rc, err := e.store.Open(op.Serial)
			if err != nil {
				return 0, err
			}
			_, copyErr := io.Copy(w, rc)
			rc.Close()
			if copyErr != nil {
				return 0, copyErr
			}
			e.store.Remove(op.Serial)
			mk.emitted = true
		}
	}

	sort.SliceStable(ops, func(i, j int) bool {
		return pathDeepCompare(ops[i].Path, ops[j].Path) < 0
	})

	e.seqno++
	commit.Serial = e.seqno
	e.markCounter++
	here := e.markCounter
	e.markFor(commit.Serial).external = here

	if report {
		if _, err := fmt.Fprintf(w, "commit %s%s\n", e.opts.BranchPrefix, branch); err != nil {
			return 0, err
		}
		if _, err := fmt.Fprintf(w, "mark :%d\n", here); err != nil {
			return 0, err
		}

		full, email, tz := commit.Author, commit.Author, commit.Tz
		if tz == "" {
			tz = "UTC"
		}
		if commit.Email != "" {
			email = commit.Email
		}
		ct := e.displayDate(commit, here)
		ts := e.formatTimestamp(ct, tz)
		if _, err := fmt.Fprintf(w, "committer %s <%s> %s\n", full, email, ts); err != nil {
			return 0, err
		}
		if _, err := fmt.Fprintf(w, "data %d\n%s\n", len(commit.Log), commit.Log); err != nil {
			return 0, err
		}
		if commit.Parent != nil {
			if _, err := fmt.Fprintf(w, "from :%d\n", e.markFor(commit.Parent.Serial).external); err != nil {
				return 0, err
			}
		}

		sawGitignore := false
		for _, op := range ops {
			switch op.Op {
			case 'M':
				if _, err := fmt.Fprintf(w, "M 100%o :%d %s\n", op.Mode, e.markFor(op.Serial).external, op.Path); err != nil {
					return 0, err
				}
			case 'D':
				if _, err := fmt.Fprintf(w, "D %s\n", op.Path); err != nil {
					return 0, err
				}
			}
			if op.Path == ".gitignore" {
				sawGitignore = true
			}
		}
		if sawGitignore {
			e.needIgnores = false
		}
		if e.needIgnores {
			e.needIgnores = false
			if _, err := fmt.Fprintf(w, "M 100644 inline .gitignore\ndata %d\n%s\n", len(blobstore.CVSIgnores), blobstore.CVSIgnores); err != nil {
				return 0, err
			}
		}
	}

	if revmap != nil {
		for _, rp := range revpairs {
			if _, err := fmt.Fprintf(revmap, "%s %s :%d\n", rp.path, rp.rev, here); err != nil {
				return 0, err
			}
		}
	}

	if e.opts.Reposurgeon && report {
		body := ""
		for _, rp := range revpairs {
			body += rp.path + " " + rp.rev + "\n"
		}
		if _, err := fmt.Fprintf(w, "property cvs-revision %d %s", len(body), body); err != nil {
			return 0, err
		}
	}

	if report {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return 0, err
		}
	}

	return here, nil
}

// commitSeq pairs a commit with the head it belongs to, for the
// canonical (date-sorted) emission path's flattened array
// (struct commit_seq in export.c).
type commitSeq struct {
	commit   *Commit
	head     *Branch
	realized bool
}

func chainLength(head *Branch) int {
	n := 0
	for c := head.Commit; c != nil; {
		n++
		if c.Tail {
			break
		}
		c = c.Parent
	}
	return n
}

// ExportCommits is the stream orchestrator: it walks every branch
// head, emits every commit exactly once in either branch order or
// canonical date order, follows each tagged commit with its tag
// resets, trails one reset per branch head, and tears down the blob
// spool (export_commits in export.c).
func (e *Exporter) ExportCommits(w io.Writer, heads []*Branch, tags []*Tag, fromTime int64, revmap io.Writer, progress Progress) error {
	if progress == nil {
		progress = NoProgress{}
	}

	total := 0
	for _, h := range heads {
		if h.Tail {
			continue
		}
		total += chainLength(h)
	}
	progress.Begin("Save: ", total)

	emitTagResets := func(w io.Writer, commit *Commit) error {
		for _, t := range tags {
			if t.Commit == commit {
				if _, err := fmt.Fprintf(w, "reset refs/tags/%s\nfrom :%d\n\n", t.Name, e.markFor(commit.Serial).external); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if e.opts.BranchOrder {
		for _, h := range heads {
			if h.Tail {
				continue
			}
			var history []*Commit
			for c := h.Commit; c != nil; {
				history = append(history, c)
				if c.Tail {
					break
				}
				c = c.Parent
			}
			for i := len(history) - 1; i >= 0; i-- {
				if _, err := e.ExportCommit(w, history[i], h.Name, true, revmap); err != nil {
					return err
				}
				progress.Step()
				if err := emitTagResets(w, history[i]); err != nil {
					return err
				}
			}
		}
	} else {
		history := make([]*commitSeq, total)
		branchbase := 0
		for _, h := range heads {
			if h.Tail {
				continue
			}
			branchlength := chainLength(h)
			i := 0
			for c := h.Commit; c != nil; {
				n := branchbase + branchlength - (i + 1)
				history[n] = &commitSeq{commit: c, head: h}
				i++
				if c.Tail {
					break
				}
				c = c.Parent
			}
			branchbase += branchlength
		}

		sortable := true
		for _, hp := range history {
			if hp.commit.Parent != nil && hp.commit.Parent.Date > hp.commit.Date {
				sortable = false
				if e.diag != nil {
					e.diag.Announce("some parent commits are younger than children.")
				}
				break
			}
		}
		if sortable {
			// sort_by_date in export.c is a plain (non-stable) qsort;
			// this uses a stable sort instead, so commits sharing a
			// timestamp keep their branch-relative order rather than
			// whatever order qsort's partitioning happens to leave
			// them in. See DESIGN.md for why this is an intentional,
			// documented deviation rather than a silent one.
			sort.SliceStable(history, func(i, j int) bool {
				return history[i].commit.Date < history[j].commit.Date
			})
		}

		for idx, hp := range history {
			report := true
			if fromTime > 0 {
				if e.displayDate(hp.commit, e.markCounter+1) < fromTime {
					report = false
				} else if !hp.realized {
					if hp.commit.Parent != nil && e.displayDate(hp.commit.Parent, e.markFor(hp.commit.Parent.Serial).external) < fromTime {
						if _, err := fmt.Fprintf(w, "from %s%s^0\n\n", e.opts.BranchPrefix, hp.head.Name); err != nil {
							return err
						}
					}
					for _, lp := range history {
						if lp.head == hp.head {
							lp.realized = true
						}
					}
				}
			}
			progress.Jump(idx)
			if _, err := e.ExportCommit(w, hp.commit, hp.head.Name, report, revmap); err != nil {
				return err
			}
			if err := emitTagResets(w, hp.commit); err != nil {
				return err
			}
		}
	}

	for _, h := range heads {
		if _, err := fmt.Fprintf(w, "reset %s%s\nfrom :%d\n\n", e.opts.BranchPrefix, h.Name, e.markFor(h.Commit.Serial).external); err != nil {
			return err
		}
	}

	progress.End()
	return e.store.Wrap()
}

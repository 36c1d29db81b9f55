package export

import (
	"github.com/emirpasic/gods/lists/arraylist"
)

// FileOp is a single on-stream modify/delete record inside a commit
// (struct fileop in export.c).
type FileOp struct {
	Op     byte // 'M' or 'D'
	Mode   int  // 644 or 755; combined with the on-stream "100" prefix at emission time
	Serial int  // only meaningful for 'M'
	Path   string
}

// revpair is one "<path> <dotted-rev>" line accumulated for the
// revision-map file and the reposurgeon cvs-revision property.
type revpair struct {
	path string
	rev  string
}

// buildFileops derives the fileop list for one commit, in build order
// (not yet canonically sorted): an 'M' for every file that's new or
// whose serial changed relative to its parent-linked counterpart,
// followed by a 'D' for every parent file that has no counterpart in
// this commit. links is nil when commit has no parent. Mirrors the two
// loops in export_commit (export.c lines ~492-570). The caller is
// responsible for running the blob-flush pass over this build-order
// list before sorting it into canonical (path_deep_compare) order —
// export_commit does the same, flushing blobs in build order and only
// qsort-ing afterward. The op list itself is an arraylist.List rather
// than export.c's chunked-realloc growable vector.
func buildFileops(commit *Commit, links *parentLinks, stripLen int, wantRevpairs bool) ([]*FileOp, []revpair) {
	ops := arraylist.New()
	var revpairs []revpair

	for _, dir := range commit.Dirs {
		for _, f := range dir.Files {
			present := false
			changed := false
			if commit.Parent != nil {
				if pf := links.partner(f, false); pf != nil {
					present = true
					changed = f.Serial != pf.Serial
				}
			}
			if !present || changed {
				mode := 0644
				if f.Exec {
					mode = 0755
				}
				path := Filename(f.Name.String(), stripLen, true)
				ops.Add(&FileOp{Op: 'M', Mode: mode, Serial: f.Serial, Path: path})
				if wantRevpairs {
					revpairs = append(revpairs, revpair{
						path: Filename(f.Name.String(), stripLen, false),
						rev:  f.Number.String(),
					})
				}
			}
		}
	}

	if commit.Parent != nil {
		for _, dir := range commit.Parent.Dirs {
			for _, f := range dir.Files {
				if links.partner(f, true) == nil {
					ops.Add(&FileOp{Op: 'D', Path: Filename(f.Name.String(), stripLen, true)})
				}
			}
		}
	}

	values := ops.Values()
	result := make([]*FileOp, len(values))
	for i, v := range values {
		result[i] = v.(*FileOp)
	}
	return result, revpairs
}

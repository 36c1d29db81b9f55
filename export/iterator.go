package export

// fileIterator is a cursor over a commit's (dir, file) pairs,
// flattening Dirs[*].Files[*] into one logical sequence and skipping
// empty directories automatically. This replaces file_iter_next's
// goto-based restart with a plain loop.
type fileIterator struct {
	dirs  []*RevDir
	dirAt int
	fileAt int
}

// newFileIterator starts a cursor at the beginning of commit's files.
// commit may be nil (the root commit has no parent), in which case
// next always returns nil.
func newFileIterator(commit *Commit) *fileIterator {
	if commit == nil {
		return &fileIterator{}
	}
	return &fileIterator{dirs: commit.Dirs}
}

// next returns the next RevFile in sequence, or nil when exhausted.
func (it *fileIterator) next() *RevFile {
	for it.dirAt < len(it.dirs) {
		dir := it.dirs[it.dirAt]
		if it.fileAt < len(dir.Files) {
			f := dir.Files[it.fileAt]
			it.fileAt++
			return f
		}
		it.dirAt++
		it.fileAt = 0
	}
	return nil
}

// clone returns an independent copy of the cursor's current position,
// so a scan can resume from a saved point without disturbing it
// (the parent-side restart in compute_parent_links).
func (it *fileIterator) clone() *fileIterator {
	c := *it
	return &c
}

package export

// parentLinks holds the reciprocal pairing between a commit's files
// and its parent's files, keyed by pointer identity. Where export.c's
// compute_parent_links stashed the pairing in a scratch `u.other`
// field on each rev_file, computeParentLinks instead hands back two
// maps that live only for the duration of building one commit's
// fileops, leaving RevFile itself immutable.
type parentLinks struct {
	toParent map[*RevFile]*RevFile
	toCommit map[*RevFile]*RevFile
}

func (p *parentLinks) partner(f *RevFile, fromParent bool) *RevFile {
	if p == nil {
		return nil
	}
	if fromParent {
		return p.toCommit[f]
	}
	return p.toParent[f]
}

// computeParentLinks pairs up files in commit and commit.Parent by
// atom identity, exploiting the commit-level Bloom filter as a
// near-constant-time "definitely not present" pre-filter and the fact
// that both file lists are already in the same canonical order, so
// matches can be found by a forward-only scan that never backtracks
// (compute_parent_links in export.c).
func computeParentLinks(commit *Commit) *parentLinks {
	parent := commit.Parent
	if parent == nil {
		return nil
	}

	links := &parentLinks{
		toParent: make(map[*RevFile]*RevFile),
		toCommit: make(map[*RevFile]*RevFile),
	}

	ncommit := 0
	for it := newFileIterator(commit); it.next() != nil; {
		ncommit++
	}
	nparent := 0
	for it := newFileIterator(parent); it.next() != nil; {
		nparent++
	}
	maxmatch := nparent
	if ncommit < maxmatch {
		maxmatch = ncommit
	}
	if maxmatch == 0 {
		return links
	}

	commitIter := newFileIterator(commit)
	parentIter := newFileIterator(parent)

	for cf := commitIter.next(); cf != nil; cf = commitIter.next() {
		if !cf.Name.Bloom().Overlaps(parent.Bloom) {
			continue
		}

		probe := parentIter.clone()
		for pf := probe.next(); pf != nil; pf = probe.next() {
			if cf.Name == pf.Name {
				links.toParent[cf] = pf
				links.toCommit[pf] = cf
				maxmatch--
				parentIter = probe
				break
			}
		}
		if maxmatch == 0 {
			return links
		}
	}
	return links
}

package cvsnumber

import (
	"github.com/emirpasic/gods/lists/arraylist"

	"github.com/rlonstein/cvs-fast-export/diag"
)

// Table interns CVS revision Numbers into Nodes and, once parsing is
// complete, stitches the branch topology together (build_branches in
// nodehash.c). The zero value is not usable; construct with New.
type Table struct {
	buckets  [tableSize]*Node
	nentries int
	headNode *Node
	diag     *diag.Channel
}

// New returns an empty Table. diag may be nil to discard diagnostics.
func New(d *diag.Channel) *Table {
	return &Table{diag: d}
}

// HeadNode is the trunk tip, discovered while BuildBranches runs.
func (t *Table) HeadNode() *Node {
	return t.headNode
}

// Len reports how many distinct Numbers have been interned.
func (t *Table) Len() int {
	return t.nentries
}

// Intern returns the unique Node for n, creating it if absent
// (hash_number in nodehash.c).
func (t *Table) Intern(n Number) *Node {
	key := normalize(n)
	h := hashKey(key)
	for p := t.buckets[h]; p != nil; p = p.hashNext {
		if numbersEqual(p.Number, key) {
			return p
		}
	}
	p := &Node{Number: key, hashNext: t.buckets[h]}
	t.buckets[h] = p
	t.nentries++
	return p
}

// FindParent looks up the prefix n[0:c-depth] without creating it
// (find_parent in nodehash.c).
func (t *Table) FindParent(n Number, depth int) *Node {
	key := n
	key.C -= depth
	if key.C <= 0 {
		return nil
	}
	h := hashKey(key)
	for p := t.buckets[h]; p != nil; p = p.hashNext {
		if numbersEqual(p.Number, key) {
			return p
		}
	}
	return nil
}

// HashVersion interns a version payload onto the node list
// (hash_version in nodehash.c). A duplicate binding is announced and
// the first one kept; an odd-depth version is announced but accepted.
func (t *Table) HashVersion(n Number, version interface{}) *Node {
	node := t.Intern(n)
	if node.Version != nil {
		t.announce("more than one delta with number %s", node.Number)
	} else {
		node.Version = version
	}
	if node.Number.IsBranch() {
		t.announce("revision with odd depth (%s)", node.Number)
	}
	return node
}

// HashPatch interns a patch payload onto the node list (hash_patch in
// nodehash.c), with the same duplicate/odd-depth handling as HashVersion.
func (t *Table) HashPatch(n Number, patch interface{}) *Node {
	node := t.Intern(n)
	if node.Patch != nil {
		t.announce("more than one delta with number %s", node.Number)
	} else {
		node.Patch = patch
	}
	if node.Number.IsBranch() {
		t.announce("patch with odd depth (%s)", node.Number)
	}
	return node
}

// HashBranch interns a branch number onto the node list (hash_branch
// in nodehash.c). Branches carry no version/patch payload.
func (t *Table) HashBranch(n Number) *Node {
	return t.Intern(n)
}

func (t *Table) announce(format string, args ...interface{}) {
	if t.diag != nil {
		t.diag.Announce(format, args...)
	}
}

// tryPair mirrors nodehash.c's try_pair(a, b) for adjacent nodes a < b
// in the sorted-by-(c,components) order.
func (t *Table) tryPair(a, b *Node) {
	n := a.Number.C
	if n == b.Number.C {
		if n == 2 {
			a.Next = b
			b.To = a
			return
		}
		i := n - 2
		for ; i >= 0; i-- {
			if a.Number.N[i] != b.Number.N[i] {
				break
			}
		}
		if i < 0 {
			a.Next = b
			a.To = b
			return
		}
	} else if n == 2 {
		t.headNode = a
	}
	if b.Number.C%2 == 0 {
		b.Starts = true
		// nodehash.c carries a comment here asking "can the code
		// below ever be needed?" — preserved verbatim, not pruned,
		// absent a test proving it dead.
		if p := t.FindParent(b.Number, 1); p != nil {
			p.Next = b
		}
	}
}

// BuildBranches sets HeadNode and builds the Next/To/Down/Sib links
// across every interned node (build_branches in nodehash.c).
func (t *Table) BuildBranches() {
	if t.nentries == 0 {
		return
	}

	list := arraylist.New()
	for _, bucket := range t.buckets {
		for p := bucket; p != nil; p = p.hashNext {
			list.Add(p)
		}
	}
	list.Sort(func(a, b interface{}) int {
		return compare(a.(*Node).Number, b.(*Node).Number)
	})

	values := list.Values()
	nodes := make([]*Node, len(values))
	for i, v := range values {
		nodes[i] = v.(*Node)
	}

	if nodes[len(nodes)-1].Number.C == 2 {
		t.headNode = nodes[len(nodes)-1]
	}
	for i := len(nodes) - 2; i >= 0; i-- {
		t.tryPair(nodes[i], nodes[i+1])
	}
	for i := len(nodes) - 1; i >= 0; i-- {
		a := nodes[i]
		if !a.Starts {
			continue
		}
		p := t.FindParent(a.Number, 2)
		if p == nil {
			t.announce("no parent for %s", a.Number)
			continue
		}
		a.Sib = p.Down
		p.Down = a
	}
}

package export

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/rlonstein/cvs-fast-export/atom"
	"github.com/rlonstein/cvs-fast-export/blobstore"
	"github.com/rlonstein/cvs-fast-export/cvsnumber"
)

func assertTrue(t *testing.T, see bool) {
	t.Helper()
	if !see {
		t.Fatalf("expected true, saw false")
	}
}

func assertEqual(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func parseRev(t *testing.T, s string) cvsnumber.Number {
	t.Helper()
	parts := strings.Split(s, ".")
	components := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			t.Fatalf("bad revision %q: %v", s, err)
		}
		components[i] = n
	}
	return cvsnumber.NewNumber(components...)
}

func newFile(t *testing.T, in *atom.Interner, name, rev string, serial int) *RevFile {
	return &RevFile{
		Name:   in.Intern(name),
		Number: parseRev(t, rev),
		Serial: serial,
	}
}

func TestFilenameStripsAtticAndRCS(t *testing.T) {
	assertEqual(t, Filename("sub/Attic/bar,v", 0, true), "sub/bar")
	assertEqual(t, Filename("RCS/baz,v", 0, true), "baz")
}

func TestFilenameCvsignoreRename(t *testing.T) {
	assertEqual(t, Filename(".cvsignore,v", 0, true), ".gitignore")
	assertEqual(t, Filename(".cvsignore,v", 0, false), ".cvsignore")
}

func TestFilenameIdempotentWithNoStrip(t *testing.T) {
	once := Filename("pkg/foo.c,v", 0, true)
	twice := Filename(once, 0, true)
	assertEqual(t, once, twice)
}

func TestPathDeepCompareOrdering(t *testing.T) {
	assertTrue(t, pathDeepCompare("a/b/c", "a/b") < 0)
	assertTrue(t, pathDeepCompare("a/b", "a") < 0)
	assertTrue(t, pathDeepCompare("a", "a/b") > 0)
	assertTrue(t, pathDeepCompare("a", "a") == 0)
	assertTrue(t, pathDeepCompare("ab", "a") > 0)
}

func TestComputeParentLinksClassifiesFiles(t *testing.T) {
	in := atom.NewInterner()

	parent := &Commit{
		Dirs: []*RevDir{{Files: []*RevFile{
			newFile(t, in, "foo,v", "1.1", 1),
			newFile(t, in, "bar,v", "1.1", 2),
		}}},
	}
	parent.ComputeBloom()

	commit := &Commit{
		Parent: parent,
		Dirs: []*RevDir{{Files: []*RevFile{
			newFile(t, in, "foo,v", "1.2", 3), // modified: different serial
			newFile(t, in, "baz,v", "1.1", 4), // added
		}}},
	}
	commit.ComputeBloom()

	links := computeParentLinks(commit)
	fooCommit := commit.Dirs[0].Files[0]
	bazCommit := commit.Dirs[0].Files[1]
	fooParent := parent.Dirs[0].Files[0]
	barParent := parent.Dirs[0].Files[1]

	assertTrue(t, links.partner(fooCommit, false) == fooParent)
	assertTrue(t, links.partner(bazCommit, false) == nil)
	assertTrue(t, links.partner(barParent, true) == nil) // bar was deleted
}

func TestExportCommitSingleTrunkStream(t *testing.T) {
	store, err := blobstore.New()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Wrap()

	in := atom.NewInterner()

	if _, err := store.Export("foo,v", []byte("a\n")); err != nil {
		t.Fatalf("export blob 1: %v", err)
	}

	c0 := &Commit{
		Date: 1000000000,
		Author: "dev", Email: "dev@example.com",
		Log: "initial revision",
		Dirs: []*RevDir{{Files: []*RevFile{
			newFile(t, in, "foo,v", "1.1", 1),
		}}},
		Tail: true,
	}
	c0.ComputeBloom()

	if _, err := store.Export("foo,v", []byte("ab\n")); err != nil {
		t.Fatalf("export blob 2: %v", err)
	}
	c1 := &Commit{
		Parent: c0,
		Date:   1000000060,
		Author: "dev", Email: "dev@example.com",
		Log: "second revision",
		Dirs: []*RevDir{{Files: []*RevFile{
			newFile(t, in, "foo,v", "1.2", 2),
		}}},
	}
	c1.ComputeBloom()

	exp := NewExporter(store, nil, Options{BranchPrefix: "refs/heads/"})
	head := &Branch{Name: "master", Commit: c1}

	var buf bytes.Buffer
	err = exp.ExportCommits(&buf, []*Branch{head}, nil, 0, nil, nil)
	if err != nil {
		t.Fatalf("export commits: %v", err)
	}

	out := buf.String()
	assertTrue(t, strings.Contains(out, "blob\nmark :1\ndata 2\na\n\n"))
	assertTrue(t, strings.Contains(out, "commit refs/heads/master\nmark :2\n"))
	assertTrue(t, strings.Contains(out, "M 100644 :1 foo\n"))
	assertTrue(t, strings.Contains(out, "blob\nmark :3\ndata 3\nab\n\n"))
	assertTrue(t, strings.Contains(out, "commit refs/heads/master\nmark :4\n"))
	assertTrue(t, strings.Contains(out, "from :2\n"))
	assertTrue(t, strings.Contains(out, "M 100644 :3 foo\n"))
	assertTrue(t, strings.Contains(out, "reset refs/heads/master\nfrom :4\n"))
}

func TestDefaultIgnoreInjectedOnce(t *testing.T) {
	store, err := blobstore.New()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Wrap()

	in := atom.NewInterner()
	store.Export("foo,v", []byte("hi\n"))

	c0 := &Commit{
		Date: 1, Author: "dev", Email: "dev@x",
		Log:  "only commit",
		Dirs: []*RevDir{{Files: []*RevFile{newFile(t, in, "foo,v", "1.1", 1)}}},
		Tail: true,
	}
	c0.ComputeBloom()

	exp := NewExporter(store, nil, Options{})
	head := &Branch{Name: "master", Commit: c0}

	var buf bytes.Buffer
	if err := exp.ExportCommits(&buf, []*Branch{head}, nil, 0, nil, nil); err != nil {
		t.Fatalf("export commits: %v", err)
	}

	out := buf.String()
	count := strings.Count(out, "inline .gitignore")
	if count != 1 {
		t.Fatalf("expected exactly one injected .gitignore, got %d", count)
	}
}

func TestDefaultIgnoreSuppressedWhenCommitProvidesOne(t *testing.T) {
	store, err := blobstore.New()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Wrap()

	in := atom.NewInterner()
	store.Export(".cvsignore,v", []byte("*.log\n"))

	c0 := &Commit{
		Date: 1, Author: "dev", Email: "dev@x",
		Log:  "adds ignore file",
		Dirs: []*RevDir{{Files: []*RevFile{newFile(t, in, ".cvsignore,v", "1.1", 1)}}},
		Tail: true,
	}
	c0.ComputeBloom()

	exp := NewExporter(store, nil, Options{})
	head := &Branch{Name: "master", Commit: c0}

	var buf bytes.Buffer
	if err := exp.ExportCommits(&buf, []*Branch{head}, nil, 0, nil, nil); err != nil {
		t.Fatalf("export commits: %v", err)
	}

	out := buf.String()
	assertTrue(t, !strings.Contains(out, "inline .gitignore"))
	assertTrue(t, strings.Contains(out, "# CVS default ignores begin"))
	assertTrue(t, strings.Contains(out, "M 100644 :1 .gitignore\n"))
}

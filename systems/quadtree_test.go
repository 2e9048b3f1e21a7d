package systems

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
)

func mustTree(t *testing.T, boundary Rect, capacity int, legacy bool) *Quadtree {
	t.Helper()
	qt, err := NewQuadtree(boundary, capacity, legacy)
	if err != nil {
		t.Fatalf("NewQuadtree failed: %v", err)
	}
	return qt
}

func positionSet(items []Item) map[[2]float32]int {
	set := make(map[[2]float32]int, len(items))
	for _, it := range items {
		set[[2]float32{it.X, it.Y}]++
	}
	return set
}

func TestNewQuadtreeRejectsBadCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -30} {
		_, err := NewQuadtree(Rect{W: 100, H: 100}, capacity, false)
		if !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("capacity %d: got %v, want ErrInvalidCapacity", capacity, err)
		}
	}
}

func TestLeafContainment(t *testing.T) {
	// Points inserted without triggering subdivision come back exactly
	// once from a query covering the whole boundary.
	qt := mustTree(t, Rect{W: 100, H: 100}, 10, false)

	positions := [][2]float32{{10, 10}, {20, 80}, {55, 55}, {99, 1}, {0, 0}}
	for _, p := range positions {
		if !qt.Insert(ecs.Entity{}, p[0], p[1]) {
			t.Fatalf("insert of in-bounds point %v failed", p)
		}
	}

	got := qt.QueryCircle(Circle{X: 50, Y: 50, R: 1000})
	if len(got) != len(positions) {
		t.Fatalf("query returned %d items, want %d", len(got), len(positions))
	}
	set := positionSet(got)
	for _, p := range positions {
		if set[p] != 1 {
			t.Errorf("point %v returned %d times, want 1", p, set[p])
		}
	}
}

func TestQueryPruning(t *testing.T) {
	// A query never returns a point outside the range, whatever the tree
	// shape. Compare against the brute-force circle test.
	rng := rand.New(rand.NewSource(7))
	qt := mustTree(t, Rect{W: 200, H: 200}, 4, false)

	var positions [][2]float32
	for i := 0; i < 500; i++ {
		x := rng.Float32() * 200
		y := rng.Float32() * 200
		positions = append(positions, [2]float32{x, y})
		qt.Insert(ecs.Entity{}, x, y)
	}

	for i := 0; i < 50; i++ {
		c := Circle{
			X: rng.Float32() * 200,
			Y: rng.Float32() * 200,
			R: rng.Float32() * 60,
		}

		got := qt.QueryCircle(c)
		for _, it := range got {
			if !c.Contains(it.X, it.Y) {
				t.Fatalf("query %+v returned out-of-range point (%v, %v)", c, it.X, it.Y)
			}
		}

		// Redistribution loses nothing, so the query must also find
		// every point the brute-force scan finds.
		want := 0
		for _, p := range positions {
			if c.Contains(p[0], p[1]) {
				want++
			}
		}
		if len(got) != want {
			t.Fatalf("query %+v returned %d points, brute force found %d", c, len(got), want)
		}
	}
}

func TestSubdivisionGeometry(t *testing.T) {
	qt := mustTree(t, Rect{X: 10, Y: 20, W: 80, H: 40}, 1, false)
	qt.Insert(ecs.Entity{}, 15, 25)
	qt.Insert(ecs.Entity{}, 70, 50) // forces the split

	if !qt.divided {
		t.Fatal("tree should have subdivided")
	}

	// The four children exactly quarter the parent.
	wantBounds := map[int]Rect{
		childNE: {X: 50, Y: 20, W: 40, H: 20},
		childNW: {X: 10, Y: 20, W: 40, H: 20},
		childSE: {X: 50, Y: 40, W: 40, H: 20},
		childSW: {X: 10, Y: 40, W: 40, H: 20},
	}
	var area float32
	for idx, want := range wantBounds {
		got := qt.children[idx].boundary
		if got != want {
			t.Errorf("child %d boundary = %+v, want %+v", idx, got, want)
		}
		area += got.W * got.H
	}
	if parent := qt.boundary.W * qt.boundary.H; area != parent {
		t.Errorf("children area sum %v != parent area %v", area, parent)
	}

	// Pairwise disjoint under half-open containment: any sample point
	// inside the parent is claimed by exactly one child.
	rng := rand.New(rand.NewSource(3))
	samples := [][2]float32{{50, 40}, {10, 20}, {50, 20}, {10, 40}} // dividing lines and corners
	for i := 0; i < 200; i++ {
		samples = append(samples, [2]float32{
			10 + rng.Float32()*80,
			20 + rng.Float32()*40,
		})
	}
	for _, p := range samples {
		owners := 0
		for _, c := range qt.children {
			if c.boundary.Contains(p[0], p[1]) {
				owners++
			}
		}
		if owners != 1 {
			t.Errorf("point %v claimed by %d children, want exactly 1", p, owners)
		}
	}
}

func TestDividingLineOwnership(t *testing.T) {
	// A point exactly on a dividing line belongs to the east or south
	// child because containment is half-open.
	qt := mustTree(t, Rect{W: 100, H: 100}, 1, false)
	qt.Insert(ecs.Entity{}, 10, 10)
	qt.Insert(ecs.Entity{}, 90, 90)

	if !qt.Insert(ecs.Entity{}, 50, 10) {
		t.Fatal("point on the vertical midline must be accepted")
	}
	if qt.children[childNE].Len() == 0 {
		t.Error("point at x=midX should land in the east child")
	}

	if !qt.Insert(ecs.Entity{}, 10, 50) {
		t.Fatal("point on the horizontal midline must be accepted")
	}
	if qt.children[childSW].Len() == 0 {
		t.Error("point at y=midY should land in the south child")
	}
}

func TestOutOfBoundsInsert(t *testing.T) {
	qt := mustTree(t, Rect{W: 100, H: 100}, 1, false)

	// A leaf root performs no bounds check, so the first out-of-bounds
	// point is stored.
	if !qt.Insert(ecs.Entity{}, 500, 500) {
		t.Error("leaf root should accept a point without checking bounds")
	}

	// Once divided, a point outside the boundary matches no child and
	// is silently dropped.
	qt.Insert(ecs.Entity{}, 10, 10)
	qt.Insert(ecs.Entity{}, 90, 90)
	if !qt.divided {
		t.Fatal("tree should have subdivided")
	}
	if qt.Insert(ecs.Entity{}, 500, 500) {
		t.Error("divided tree must drop an out-of-bounds point")
	}
	// The stranded out-of-bounds item from the leaf phase is lost during
	// redistribution: no child contains it.
	got := qt.QueryCircle(Circle{X: 500, Y: 500, R: 10})
	if len(got) != 0 {
		t.Errorf("out-of-bounds point still queryable after redistribution: %v", got)
	}
}

func TestRedistributeSplitKeepsEverything(t *testing.T) {
	qt := mustTree(t, Rect{W: 100, H: 100}, 4, false)
	rng := rand.New(rand.NewSource(11))

	const n = 100
	kept := 0
	for i := 0; i < n; i++ {
		if qt.Insert(ecs.Entity{}, rng.Float32()*100, rng.Float32()*100) {
			kept++
		}
	}

	if kept != n {
		t.Errorf("redistribute policy kept %d of %d points", kept, n)
	}
	if got := qt.Len(); got != n {
		t.Errorf("tree holds %d points, want %d", got, n)
	}
	if got := len(qt.QueryCircle(Circle{X: 50, Y: 50, R: 1000})); got != n {
		t.Errorf("whole-boundary query returned %d points, want %d", got, n)
	}
	// Items live only in leaves under this policy.
	if len(qt.items) != 0 {
		t.Errorf("divided root still holds %d items", len(qt.items))
	}
}

func TestLegacySplitDropsTriggeringPoint(t *testing.T) {
	qt := mustTree(t, Rect{W: 100, H: 100}, 4, true)

	positions := [][2]float32{{10, 10}, {20, 20}, {30, 30}, {40, 40}}
	for _, p := range positions {
		if !qt.Insert(ecs.Entity{}, p[0], p[1]) {
			t.Fatalf("insert %v failed below capacity", p)
		}
	}

	// The fifth point triggers the split and is discarded.
	if qt.Insert(ecs.Entity{}, 60, 60) {
		t.Error("legacy split must report the triggering point as dropped")
	}
	if !qt.divided {
		t.Fatal("tree should have subdivided")
	}

	// The held items stay on the internal node and remain query-visible.
	if len(qt.items) != 4 {
		t.Errorf("internal node holds %d items, want 4", len(qt.items))
	}
	got := qt.QueryCircle(Circle{X: 50, Y: 50, R: 1000})
	if len(got) != 4 {
		t.Fatalf("query returned %d items, want the 4 held points", len(got))
	}
	set := positionSet(got)
	for _, p := range positions {
		if set[p] != 1 {
			t.Errorf("held point %v returned %d times, want 1", p, set[p])
		}
	}

	// Subsequent inserts descend into the children as usual.
	if !qt.Insert(ecs.Entity{}, 60, 60) {
		t.Error("insert after the split should succeed")
	}
	if got := qt.Len(); got != 5 {
		t.Errorf("tree holds %d points, want 5", got)
	}
}

// treesEqual compares node structure and per-node membership.
func treesEqual(a, b *Quadtree) bool {
	if a.boundary != b.boundary || a.divided != b.divided || len(a.items) != len(b.items) {
		return false
	}
	for i := range a.items {
		if a.items[i].X != b.items[i].X || a.items[i].Y != b.items[i].Y {
			return false
		}
	}
	if a.divided {
		for i := range a.children {
			if !treesEqual(a.children[i], b.children[i]) {
				return false
			}
		}
	}
	return true
}

func TestRebuildIsIdempotent(t *testing.T) {
	// Two trees built from the same point sequence have identical node
	// structure and per-node membership.
	rng := rand.New(rand.NewSource(42))
	var positions [][2]float32
	for i := 0; i < 300; i++ {
		positions = append(positions, [2]float32{rng.Float32() * 100, rng.Float32() * 100})
	}

	for _, legacy := range []bool{false, true} {
		a := mustTree(t, Rect{W: 100, H: 100}, 8, legacy)
		b := mustTree(t, Rect{W: 100, H: 100}, 8, legacy)
		for _, p := range positions {
			a.Insert(ecs.Entity{}, p[0], p[1])
			b.Insert(ecs.Entity{}, p[0], p[1])
		}
		if !treesEqual(a, b) {
			t.Errorf("legacy=%v: rebuilding from the same sequence produced different trees", legacy)
		}
	}
}

func TestQueryEmptyTree(t *testing.T) {
	qt := mustTree(t, Rect{W: 100, H: 100}, 4, false)
	if got := qt.QueryCircle(Circle{X: 50, Y: 50, R: 10}); len(got) != 0 {
		t.Errorf("empty tree query returned %d items", len(got))
	}
	if qt.Len() != 0 || qt.Nodes() != 1 || qt.Depth() != 1 {
		t.Errorf("empty tree stats: len=%d nodes=%d depth=%d", qt.Len(), qt.Nodes(), qt.Depth())
	}
}

func TestWalkVisitsEveryNode(t *testing.T) {
	qt := mustTree(t, Rect{W: 100, H: 100}, 1, false)
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		qt.Insert(ecs.Entity{}, rng.Float32()*100, rng.Float32()*100)
	}

	visited := 0
	qt.Walk(func(boundary Rect, divided bool) {
		visited++
		if boundary.W <= 0 || boundary.H <= 0 {
			t.Errorf("walk yielded degenerate boundary %+v", boundary)
		}
	})
	if visited != qt.Nodes() {
		t.Errorf("walk visited %d nodes, Nodes() reports %d", visited, qt.Nodes())
	}
}

func TestQueryCircleIntoReusesBuffer(t *testing.T) {
	qt := mustTree(t, Rect{W: 100, H: 100}, 8, false)
	for i := 0; i < 20; i++ {
		qt.Insert(ecs.Entity{}, float32(i*5), 50)
	}

	buf := make([]Item, 0, 32)
	first := qt.QueryCircleInto(buf[:0], Circle{X: 50, Y: 50, R: 12})
	second := qt.QueryCircleInto(buf[:0], Circle{X: 0, Y: 50, R: 6})

	if len(first) == 0 || len(second) == 0 {
		t.Fatalf("expected hits in both queries, got %d and %d", len(first), len(second))
	}
	for _, it := range second {
		if it.Y != 50 || it.X >= 6 {
			t.Errorf("second query returned unexpected item (%v, %v)", it.X, it.Y)
		}
	}
}

package broadphase

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/akmonengine/broadphase/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func sortedIDs(ids []NodeID) []NodeID {
	sorted := append([]NodeID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })
	return sorted
}

func sameIDs(a, b []NodeID) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = sortedIDs(a), sortedIDs(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// bruteForceOverlapping scans every leaf fat AABB
func bruteForceOverlapping(t *testing.T, tree *Tree, ids []NodeID, query actor.AABB) []NodeID {
	t.Helper()
	var result []NodeID
	for _, id := range ids {
		fat, err := tree.GetFatAABB(id)
		if err != nil {
			t.Fatal(err)
		}
		if fat.Overlaps(query) {
			result = append(result, id)
		}
	}
	return result
}

// =============================================================================
// Overlap Query Tests
// =============================================================================

func TestReportOverlapping_NestedBoxes(t *testing.T) {
	tree := newTestTree(0)
	a := mustAdd(t, tree, box(-1, -1, -1, 1, 1, 1))
	mustAdd(t, tree, box(5, 5, 5, 7, 7, 7))
	c := mustAdd(t, tree, box(-1, -1, -1, 0, 0, 0))

	result, err := tree.ReportOverlapping(box(-2, -2, -2, 2, 2, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(result, []NodeID{a, c}) {
		t.Errorf("ReportOverlapping = %v, expected %v", result, []NodeID{a, c})
	}
}

func TestReportOverlapping_IncludesQueriedLeaf(t *testing.T) {
	tree := newTestTree(0)
	a := mustAdd(t, tree, box(0, 0, 0, 1, 1, 1))
	mustAdd(t, tree, box(10, 10, 10, 11, 11, 11))

	fat, _ := tree.GetFatAABB(a)
	result, _ := tree.ReportOverlapping(fat)
	if !sameIDs(result, []NodeID{a}) {
		t.Errorf("ReportOverlapping = %v, expected only %v", result, a)
	}
}

func TestReportOverlapping_EmptyTree(t *testing.T) {
	tree := newTestTree(0)
	result, err := tree.ReportOverlapping(box(-10, -10, -10, 10, 10, 10))
	if err != nil || len(result) != 0 {
		t.Errorf("ReportOverlapping on an empty tree = (%v, %v)", result, err)
	}
}

func TestReportOverlapping_InvalidQuery(t *testing.T) {
	tree := newTestTree(0)
	mustAdd(t, tree, box(0, 0, 0, 1, 1, 1))

	if _, err := tree.ReportOverlapping(box(1, 1, 1, 0, 0, 0)); !errors.Is(err, ErrInvalidAABB) {
		t.Errorf("Expected ErrInvalidAABB, got %v", err)
	}
	if err := tree.Query(box(1, 1, 1, 0, 0, 0), OverlapFunc(func(NodeID) bool { return true })); !errors.Is(err, ErrInvalidAABB) {
		t.Errorf("Expected ErrInvalidAABB, got %v", err)
	}
}

func TestReportOverlapping_MatchesBruteForce(t *testing.T) {
	tree := newTestTree(0.2)
	r := rand.New(rand.NewSource(2024))

	ids := make([]NodeID, 0, 300)
	for i := 0; i < 300; i++ {
		ids = append(ids, mustAdd(t, tree, randomAABB(r, 100, 6)))
	}

	// Move a third of them so the tree also contains reinserted leaves
	for i := 0; i < 100; i++ {
		id := ids[r.Intn(len(ids))]
		if _, err := tree.UpdateObject(id, randomAABB(r, 100, 6), false); err != nil {
			t.Fatal(err)
		}
	}

	for q := 0; q < 100; q++ {
		query := randomAABB(r, 100, 25)
		result, err := tree.ReportOverlapping(query)
		if err != nil {
			t.Fatal(err)
		}
		expected := bruteForceOverlapping(t, tree, ids, query)
		if !sameIDs(result, expected) {
			t.Fatalf("query %v: tree found %d leaves, brute force %d", query, len(result), len(expected))
		}
	}
}

func TestQuery_StopsWhenCallbackReturnsFalse(t *testing.T) {
	tree := newTestTree(0)
	for i := 0; i < 10; i++ {
		mustAdd(t, tree, cube(mgl64.Vec3{float64(i), 0, 0}, 0.5))
	}

	visited := 0
	err := tree.Query(box(-1, -1, -1, 20, 1, 1), OverlapFunc(func(id NodeID) bool {
		visited++
		return visited < 3
	}))
	if err != nil {
		t.Fatal(err)
	}
	if visited != 3 {
		t.Errorf("Visited %d leaves, expected the traversal to stop at 3", visited)
	}
}

// =============================================================================
// Pair Query Tests
// =============================================================================

func TestReportOverlappingPairs(t *testing.T) {
	tree := newTestTree(0)
	a := mustAdd(t, tree, box(0, 0, 0, 2, 2, 2))
	b := mustAdd(t, tree, box(1, 1, 1, 3, 3, 3))
	c := mustAdd(t, tree, box(2.5, 2.5, 2.5, 4, 4, 4))
	d := mustAdd(t, tree, box(10, 10, 10, 11, 11, 11))

	pairs, err := tree.ReportOverlappingPairs([]NodeID{a, b, c, d}, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	sortNodePairs(pairs)

	expected := []NodePair{{A: a, B: b}, {A: b, B: a}, {A: b, B: c}}
	sortNodePairs(expected)
	if len(pairs) != len(expected) {
		t.Fatalf("ReportOverlappingPairs = %v, expected %v", pairs, expected)
	}
	for i := range pairs {
		if pairs[i] != expected[i] {
			t.Errorf("pair %d = %v, expected %v", i, pairs[i], expected[i])
		}
		if pairs[i].A == pairs[i].B {
			t.Errorf("Self pair reported: %v", pairs[i])
		}
	}
}

func TestReportOverlappingPairs_MatchesBruteForce(t *testing.T) {
	tree := newTestTree(0.1)
	r := rand.New(rand.NewSource(5))
	ids := make([]NodeID, 0, 150)
	for i := 0; i < 150; i++ {
		ids = append(ids, mustAdd(t, tree, randomAABB(r, 60, 5)))
	}

	pairs, err := tree.ReportOverlappingPairs(ids, 20, 60)
	if err != nil {
		t.Fatal(err)
	}

	expected := 0
	for _, queried := range ids[20:60] {
		fat, _ := tree.GetFatAABB(queried)
		for _, hit := range bruteForceOverlapping(t, tree, ids, fat) {
			if hit != queried {
				expected++
			}
		}
	}
	if len(pairs) != expected {
		t.Errorf("ReportOverlappingPairs found %d pairs, brute force %d", len(pairs), expected)
	}
}

func TestReportOverlappingPairs_Errors(t *testing.T) {
	tree := newTestTree(0)
	a := mustAdd(t, tree, box(0, 0, 0, 1, 1, 1))
	b := mustAdd(t, tree, box(0, 0, 0, 1, 1, 1))
	ids := []NodeID{a, b}

	for _, r := range [][2]int{{-1, 1}, {0, 3}, {2, 1}} {
		if _, err := tree.ReportOverlappingPairs(ids, r[0], r[1]); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("range %v: expected ErrInvalidRange, got %v", r, err)
		}
	}

	if pairs, err := tree.ReportOverlappingPairs(ids, 1, 1); err != nil || len(pairs) != 0 {
		t.Errorf("Empty range = (%v, %v)", pairs, err)
	}

	if err := tree.RemoveObject(b); err != nil {
		t.Fatal(err)
	}
	if _, err := tree.ReportOverlappingPairs(ids, 0, 2); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Expected ErrInvalidHandle for a removed id, got %v", err)
	}
}

// =============================================================================
// Raycast Tests
// =============================================================================

// rowOfCubes inserts unit cubes centered on x = 0, 2, 4, ... along the X axis
func rowOfCubes(t *testing.T, tree *Tree, count int) []NodeID {
	ids := make([]NodeID, count)
	for i := range ids {
		ids[i] = mustAdd(t, tree, cube(mgl64.Vec3{float64(i) * 2, 0, 0}, 0.5))
	}
	return ids
}

func TestRaycast_FindsClosest(t *testing.T) {
	tree := newTestTree(0)
	ids := rowOfCubes(t, tree, 20)
	ray := actor.NewRay(mgl64.Vec3{-10, 0, 0}, mgl64.Vec3{50, 0, 0})

	closest := NullNode
	var fractions []float64
	tree.Raycast(ray, RaycastFunc(func(id NodeID, clipped actor.Ray) float64 {
		fractions = append(fractions, clipped.MaxFraction)

		fat, _ := tree.GetFatAABB(id)
		f, ok := fat.IntersectRay(clipped)
		if !ok {
			return -1
		}
		closest = id
		return f
	}))

	if closest != ids[0] {
		t.Errorf("Closest hit = %v, expected %v", closest, ids[0])
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] > fractions[i-1] {
			t.Fatalf("Max fraction grew from %v to %v", fractions[i-1], fractions[i])
		}
	}
}

func TestRaycast_ZeroStops(t *testing.T) {
	tree := newTestTree(0)
	rowOfCubes(t, tree, 20)

	calls := 0
	tree.Raycast(actor.NewRay(mgl64.Vec3{-10, 0, 0}, mgl64.Vec3{50, 0, 0}), RaycastFunc(func(NodeID, actor.Ray) float64 {
		calls++
		return 0
	}))

	if calls != 1 {
		t.Errorf("Callback called %d times, expected 1", calls)
	}
}

func TestRaycast_NegativeIgnores(t *testing.T) {
	tree := newTestTree(0)
	ids := rowOfCubes(t, tree, 20)

	var hits []NodeID
	tree.Raycast(actor.NewRay(mgl64.Vec3{-10, 0, 0}, mgl64.Vec3{50, 0, 0}), RaycastFunc(func(id NodeID, clipped actor.Ray) float64 {
		if clipped.MaxFraction != 1 {
			t.Errorf("Max fraction changed to %v", clipped.MaxFraction)
		}
		hits = append(hits, id)
		return -1
	}))

	if !sameIDs(hits, ids) {
		t.Errorf("Visited %d leaves, expected all %d", len(hits), len(ids))
	}
}

func TestRaycast_ClipExcludesFartherLeaves(t *testing.T) {
	tree := newTestTree(0)
	ids := rowOfCubes(t, tree, 10)
	// From x=-1 to x=19: cube i spans [2i-0.5, 2i+0.5], entered at fraction (2i+0.5)/20
	ray := actor.NewRay(mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{19, 0, 0})

	var hits []NodeID
	tree.Raycast(ray, RaycastFunc(func(id NodeID, clipped actor.Ray) float64 {
		hits = append(hits, id)
		// Only keep what lies before x = 4
		return 0.25
	}))

	for _, hit := range hits {
		fat, _ := tree.GetFatAABB(hit)
		if fat.Min.X() > 4 && hit != hits[0] {
			t.Errorf("Leaf %v at x=%v visited after clipping to x=4", hit, fat.Min.X())
		}
	}
	if len(hits) == 0 || len(hits) == len(ids) {
		t.Errorf("Visited %d leaves, clipping should prune some of the %d", len(hits), len(ids))
	}
}

func TestRaycast_Miss(t *testing.T) {
	tree := newTestTree(0)
	rowOfCubes(t, tree, 10)

	called := false
	tree.Raycast(actor.NewRay(mgl64.Vec3{-10, 5, 0}, mgl64.Vec3{50, 5, 0}), RaycastFunc(func(NodeID, actor.Ray) float64 {
		called = true
		return -1
	}))
	if called {
		t.Error("A ray above every leaf should not reach the callback")
	}

	empty := newTestTree(0)
	empty.Raycast(actor.NewRay(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}), RaycastFunc(func(NodeID, actor.Ray) float64 {
		t.Error("Empty tree should not call back")
		return 0
	}))
}

func TestRaycast_NaNMisses(t *testing.T) {
	tree := newTestTree(0)
	rowOfCubes(t, tree, 10)

	rays := []actor.Ray{
		actor.NewRay(mgl64.Vec3{-10, 0, 0}, mgl64.Vec3{50, 0, 0}).Clip(math.NaN()),
		actor.NewRay(mgl64.Vec3{math.NaN(), 0, 0}, mgl64.Vec3{50, 0, 0}),
		actor.NewRay(mgl64.Vec3{-10, 0, 0}, mgl64.Vec3{50, 0, math.NaN()}),
	}
	for _, ray := range rays {
		tree.Raycast(ray, RaycastFunc(func(NodeID, actor.Ray) float64 {
			t.Errorf("Ray %v should miss every leaf", ray)
			return 0
		}))
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkReportOverlapping(b *testing.B) {
	r := rand.New(rand.NewSource(0))
	tree := NewTree(Config{FatInflatePercentage: 0.1, Logger: quietLogger()})
	for i := 0; i < 10000; i++ {
		mustAdd(b, tree, randomAABB(r, 1000, 4))
	}
	queries := make([]actor.AABB, 256)
	for i := range queries {
		queries[i] = randomAABB(r, 1000, 20)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tree.ReportOverlapping(queries[i%len(queries)]); err != nil {
			b.Fatal(err)
		}
	}
}

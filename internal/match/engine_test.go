package match

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/embedding"
)

func record(id string, vec embedding.Vector) database.IdentityRecord {
	return database.IdentityRecord{
		IdentityID: id,
		Embedding:  vec,
		Dim:        vec.Dim(),
		EnrolledAt: time.Now(),
	}
}

func twoRecordCorpus() []database.IdentityRecord {
	return []database.IdentityRecord{
		record("id-1", embedding.Vector{0, 0}),
		record("id-2", embedding.Vector{20, 20}),
	}
}

func TestFindMatchNearQuery(t *testing.T) {
	engine := NewEngine(10, 2)

	decision, err := engine.FindMatch(embedding.Vector{0.1, 0.1}, twoRecordCorpus())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Matched {
		t.Fatal("expected a match")
	}
	if decision.IdentityID != "id-1" {
		t.Errorf("expected id-1, got %s", decision.IdentityID)
	}
	if math.Abs(float64(decision.Distance)-0.1414) > 0.001 {
		t.Errorf("expected distance ~0.1414, got %v", decision.Distance)
	}
}

func TestFindMatchFarQuery(t *testing.T) {
	engine := NewEngine(10, 2)

	// Distance to id-2 is ~14.1, to id-1 ~42.4; both over threshold.
	decision, err := engine.FindMatch(embedding.Vector{30, 30}, twoRecordCorpus())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Matched {
		t.Errorf("expected no match, got %+v", decision)
	}
}

func TestFindMatchEmptyCorpus(t *testing.T) {
	engine := NewEngine(10, 2)

	for _, query := range []embedding.Vector{{0, 0}, {1e9, -1e9}, {1, 2, 3}} {
		decision, err := engine.FindMatch(query, nil)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", query, err)
		}
		if decision.Matched {
			t.Errorf("expected no match on empty corpus for %v", query)
		}
	}
}

func TestFindMatchPicksNearestNotFirst(t *testing.T) {
	engine := NewEngine(10, 2)

	// Both under threshold; the first-encountered record is not the nearest.
	corpus := []database.IdentityRecord{
		record("id-far", embedding.Vector{5, 5}),
		record("id-near", embedding.Vector{1, 1}),
	}

	decision, err := engine.FindMatch(embedding.Vector{0, 0}, corpus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.IdentityID != "id-near" {
		t.Errorf("expected nearest record id-near, got %s", decision.IdentityID)
	}
}

func TestFindMatchDeterministicTieBreak(t *testing.T) {
	engine := NewEngine(10, 2)

	a := record("id-a", embedding.Vector{1, 0})
	b := record("id-b", embedding.Vector{-1, 0})

	// Equal distances; lowest identity ID must win regardless of order.
	for _, corpus := range [][]database.IdentityRecord{{a, b}, {b, a}} {
		decision, err := engine.FindMatch(embedding.Vector{0, 0}, corpus)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if decision.IdentityID != "id-a" {
			t.Errorf("expected tie broken by lowest ID, got %s", decision.IdentityID)
		}
	}
}

func TestFindMatchThresholdMonotonicity(t *testing.T) {
	corpus := twoRecordCorpus()
	query := embedding.Vector{3, 4} // distance 5 to id-1

	matched := NewEngine(6, 2)
	decision, err := matched.FindMatch(query, corpus)
	if err != nil || !decision.Matched {
		t.Fatalf("expected match at threshold 6, got %+v err %v", decision, err)
	}

	// Any larger threshold must still match.
	for _, th := range []float32{7, 10, 100} {
		d, err := NewEngine(th, 2).FindMatch(query, corpus)
		if err != nil || !d.Matched {
			t.Errorf("expected match at threshold %v, got %+v err %v", th, d, err)
		}
	}

	// Strictly-less-than: exact threshold distance is not a match.
	d, err := NewEngine(5, 2).FindMatch(query, corpus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Matched {
		t.Errorf("distance equal to threshold must not match, got %+v", d)
	}
}

func TestFindMatchQueryDimensionMismatch(t *testing.T) {
	engine := NewEngine(10, 2)

	_, err := engine.FindMatch(embedding.Vector{1, 2, 3}, twoRecordCorpus())
	var dimErr *DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
	if dimErr.Got != 3 || dimErr.Want != 2 {
		t.Errorf("unexpected error fields: %+v", dimErr)
	}
}

func TestFindMatchSkipsBadRecords(t *testing.T) {
	engine := NewEngine(10, 2)

	corpus := []database.IdentityRecord{
		record("id-bad", embedding.Vector{1, 2, 3, 4}), // wrong dimension
		{IdentityID: "id-empty"},                       // no embedding at all
		record("id-good", embedding.Vector{0, 0}),
	}

	decision, err := engine.FindMatch(embedding.Vector{0.5, 0.5}, corpus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Matched || decision.IdentityID != "id-good" {
		t.Errorf("expected match against the valid record, got %+v", decision)
	}
}

func TestFindMatchDeterminism(t *testing.T) {
	engine := NewEngine(10, 2)
	corpus := []database.IdentityRecord{
		record("id-1", embedding.Vector{0, 0}),
		record("id-2", embedding.Vector{0.5, 0.5}),
		record("id-3", embedding.Vector{1, 1}),
	}
	query := embedding.Vector{0.4, 0.4}

	first, err := engine.FindMatch(query, corpus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for range 100 {
		got, err := engine.FindMatch(query, corpus)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != first {
			t.Fatalf("decision changed between runs: %+v vs %+v", got, first)
		}
	}
}

package query

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyIsStableForIdenticalTuples(t *testing.T) {
	a := NewParams(10)
	a.SetFilter("gender", "female")
	a.SetSearch("liza")
	a.SetSort("first_name", true)
	a.SetPage(3)

	b := NewParams(10)
	b.SetSearch("liza")
	b.SetFilter("gender", "female")
	b.SetSort("first_name", true)
	b.SetPage(3)

	if a.Key("users") != b.Key("users") {
		t.Fatalf("keys differ:\n%s\n%s", a.Key("users"), b.Key("users"))
	}
}

func TestAllSentinelIsOmitted(t *testing.T) {
	p := NewParams(10)
	p.SetFilter("gender", FilterAll)
	p.SetFilter("religion", "catholic")
	values := p.Encode()
	if values.Has("gender") {
		t.Fatalf("gender=all leaked into query: %v", values)
	}
	if values.Get("religion") != "catholic" {
		t.Fatalf("religion missing: %v", values)
	}
}

func TestFilterChangeResetsPageIndex(t *testing.T) {
	p := NewParams(25)
	p.SetPage(4)
	p.SetFilter("sphere_id", "3")
	if p.Page.Index != 0 {
		t.Fatalf("page index = %d after filter change", p.Page.Index)
	}

	p.SetPage(2)
	p.SetSearch("marco")
	if p.Page.Index != 0 {
		t.Fatalf("page index = %d after search change", p.Page.Index)
	}
	if p.Encode().Get("page") != "1" {
		t.Fatalf("encoded page = %q", p.Encode().Get("page"))
	}
}

func TestEncodeUsesOneBasedPagesAndPrimarySort(t *testing.T) {
	p := NewParams(50)
	p.SetPage(2)
	p.SetSort("created_at", true)
	values := p.Encode()
	if values.Get("page") != "3" || values.Get("per_page") != "50" {
		t.Fatalf("pagination encoded as %v", values)
	}
	if values.Get("sort") != "created_at" || values.Get("direction") != "desc" {
		t.Fatalf("sort encoded as %v", values)
	}
	p.SetSort("email", false)
	if p.Encode().Get("direction") != "asc" {
		t.Fatalf("direction = %q", p.Encode().Get("direction"))
	}
}

func TestDebouncerPublishesOnlyFinalValue(t *testing.T) {
	d := NewDebouncer(60 * time.Millisecond)
	var calls atomic.Int32
	var final atomic.Value

	for _, term := range []string{"l", "li", "liz", "liza"} {
		term := term
		d.Do(func() {
			calls.Add(1)
			final.Store(term)
		})
		time.Sleep(5 * time.Millisecond)
	}

	// Inside the window nothing has fired yet.
	if calls.Load() != 0 {
		t.Fatalf("published during debounce window")
	}
	time.Sleep(120 * time.Millisecond)
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want exactly 1", calls.Load())
	}
	if final.Load() != "liza" {
		t.Fatalf("published %v, want final keystroke", final.Load())
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32
	d.Do(func() { calls.Add(1) })
	d.Stop()
	time.Sleep(80 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("stopped debouncer still fired")
	}
}

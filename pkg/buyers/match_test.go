package buyers

import "testing"

func TestMatchOrderedByScore(t *testing.T) {
	got := Match([]string{"BMW", "saloon", "executive"})
	if len(got) != len(Buyers) {
		t.Fatalf("expected all %d buyers, got %d", len(Buyers), len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("scores not non-increasing: %+v", got)
		}
	}
	if got[0].Name != "John Smith" || got[0].Score != 3 {
		t.Fatalf("expected John Smith with score 3 first, got %s score=%d", got[0].Name, got[0].Score)
	}
}

func TestMatchZeroOverlapKeepsTableOrder(t *testing.T) {
	got := Match([]string{"tractor"})
	if len(got) != len(Buyers) {
		t.Fatalf("expected all buyers, got %d", len(got))
	}
	for i, sb := range got {
		if sb.Score != 0 {
			t.Fatalf("expected score 0 for %s", sb.Name)
		}
		if sb.Name != Buyers[i].Name {
			t.Fatalf("table order broken at %d: %s vs %s", i, sb.Name, Buyers[i].Name)
		}
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	a := Match([]string{"bmw", "SUV"})
	b := Match([]string{"BMW", "suv"})
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Score != b[i].Score {
			t.Fatalf("case sensitivity leak at %d", i)
		}
	}
}

func TestMatchEmptyTags(t *testing.T) {
	got := Match(nil)
	if len(got) != len(Buyers) {
		t.Fatalf("nil tags should return full directory, got %d", len(got))
	}
}

func TestDirectoryShape(t *testing.T) {
	if len(Buyers) != 8 {
		t.Fatalf("buyer directory must hold 8 profiles, has %d", len(Buyers))
	}
	if len(Locations) != 22 {
		t.Fatalf("location directory must hold 22 records, has %d", len(Locations))
	}
	if _, ok := LocationByName("Sytner BMW Birmingham - High St"); !ok {
		t.Fatal("known location not found")
	}
	if _, ok := LocationByName("nowhere"); ok {
		t.Fatal("unknown location should not resolve")
	}
}

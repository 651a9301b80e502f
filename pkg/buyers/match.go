package buyers

import (
	"sort"
	"strings"
)

// ScoredBuyer is a buyer with its tag-overlap score for one report.
type ScoredBuyer struct {
	BuyerProfile
	Score int `json:"score"`
}

// Match ranks every buyer in the directory by counted overlap between the
// report's category tags and the buyer's specialty tags (case-insensitive).
// Ties keep directory order, and a zero-overlap input returns the whole
// directory in order with score 0. Pure function over static data.
func Match(tags []string) []ScoredBuyer {
	want := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			want[t] = struct{}{}
		}
	}
	out := make([]ScoredBuyer, len(Buyers))
	for i, b := range Buyers {
		score := 0
		for _, s := range b.Specialty {
			if _, ok := want[strings.ToLower(s)]; ok {
				score++
			}
		}
		out[i] = ScoredBuyer{BuyerProfile: b, Score: score}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

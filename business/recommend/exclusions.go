package recommend

import (
	"time"

	"plateful/domain"
)

// Exclusion reasons kept for debugging output.
const (
	ExcludedRecentOrder = "recent_order"
	ExcludedDisliked    = "recently_disliked"
	ExcludedPermanent   = "permanently_excluded"
)

// ExclusionSet maps item id to the reason it is excluded.
type ExclusionSet map[uint64]string

func (e ExclusionSet) Contains(itemID uint64) bool {
	_, ok := e[itemID]
	return ok
}

// ComputeExclusions is a pure function of the history snapshot and the
// current time: the union of items ordered or rated within the short
// recency window, items disliked within the longer decay window, and
// permanently excluded items. Deterministic given the same inputs.
func ComputeExclusions(history []domain.InteractionEvent, now time.Time, cfg Config) ExclusionSet {
	orderCutoff := now.AddDate(0, 0, -cfg.RecentOrderWindowDays)
	dislikeCutoff := now.AddDate(0, 0, -cfg.DislikeWindowDays)

	out := make(ExclusionSet)
	for _, ev := range history {
		switch ev.EventType {
		case domain.InteractionExcluded:
			// permanent exclusions win over window-based reasons
			out[ev.ItemID] = ExcludedPermanent
		case domain.InteractionDisliked:
			if ev.CreatedAt.After(dislikeCutoff) && out[ev.ItemID] != ExcludedPermanent {
				out[ev.ItemID] = ExcludedDisliked
			}
		case domain.InteractionOrdered, domain.InteractionRated:
			if ev.CreatedAt.After(orderCutoff) {
				if _, taken := out[ev.ItemID]; !taken {
					out[ev.ItemID] = ExcludedRecentOrder
				}
			}
		}
	}
	return out
}

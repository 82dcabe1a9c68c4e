package models

// Badge is the display tier derived from a user's cumulative points.
type Badge string

const (
	BadgeNone   Badge = "None"
	BadgeBronze Badge = "Bronze"
	BadgeSilver Badge = "Silver"
	BadgeGold   Badge = "Gold"
)

// Tier thresholds, inclusive lower bounds.
const (
	BronzeThreshold int64 = 100
	SilverThreshold int64 = 300
	GoldThreshold   int64 = 600
)

// AmountPerPoint is the donation amount that earns a single point.
const AmountPerPoint int64 = 10

// MaxLevel is reported as the next badge once Gold is reached.
const MaxLevel = "Max Level"

// badgeTiers is ordered from the highest threshold down
var badgeTiers = []struct {
	badge     Badge
	threshold int64
}{
	{BadgeGold, GoldThreshold},
	{BadgeSilver, SilverThreshold},
	{BadgeBronze, BronzeThreshold},
}

// BadgeFor maps cumulative points to a badge tier. It is the only place the
// thresholds are evaluated; donation and task approval both go through it.
func BadgeFor(points int64) Badge {
	for _, tier := range badgeTiers {
		if points >= tier.threshold {
			return tier.badge
		}
	}
	return BadgeNone
}

// PointsForAmount returns floor(amount / 10) for positive amounts.
func PointsForAmount(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return amount / AmountPerPoint
}

// IsValid reports whether b is one of the known tiers
func (b Badge) IsValid() bool {
	switch b {
	case BadgeNone, BadgeBronze, BadgeSilver, BadgeGold:
		return true
	}
	return false
}

// String returns the badge name
func (b Badge) String() string {
	return string(b)
}

// BadgeProgress describes how far a user is from the next tier.
type BadgeProgress struct {
	Current      Badge   `json:"current"`
	NextBadge    string  `json:"next_badge"`
	PointsNeeded int64   `json:"points_needed"`
	Progress     float64 `json:"progress"`
}

// NextBadge computes progress towards the next tier. Progress is the share of
// the next threshold already earned, in percent.
func NextBadge(points int64) BadgeProgress {
	if points < 0 {
		points = 0
	}

	progress := BadgeProgress{Current: BadgeFor(points)}

	var next Badge
	var threshold int64
	switch {
	case points < BronzeThreshold:
		next, threshold = BadgeBronze, BronzeThreshold
	case points < SilverThreshold:
		next, threshold = BadgeSilver, SilverThreshold
	case points < GoldThreshold:
		next, threshold = BadgeGold, GoldThreshold
	default:
		progress.NextBadge = MaxLevel
		progress.Progress = 100
		return progress
	}

	progress.NextBadge = next.String()
	progress.PointsNeeded = threshold - points
	progress.Progress = float64(points) / float64(threshold) * 100
	return progress
}

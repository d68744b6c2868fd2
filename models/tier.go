package models

// Tier is a named subscription level controlling feature limits
type Tier string

// Subscription tiers, lowest to highest
const (
	TierFree     Tier = "free"
	TierPlus     Tier = "plus"
	TierPro      Tier = "pro"
	TierUltimate Tier = "ultimate"
)

// ValidTier reports whether t is one of the known tiers
func ValidTier(t Tier) bool {
	switch t {
	case TierFree, TierPlus, TierPro, TierUltimate:
		return true
	}
	return false
}

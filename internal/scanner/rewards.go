package scanner

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TransactionTypeScan is the ledger entry type written for scan rewards.
const TransactionTypeScan = "species_scan"

// Reward is the grant for a single qualifying scan.
type Reward struct {
	Points   int `json:"points_earned"`
	Currency int `json:"currency_earned"`
}

// Reward tiers keyed by lowercase endangered status. Anything outside the
// two-value vocabulary (including "Unknown" from degraded scans) pays the
// common tier, so a failed identification can never out-earn a real one.
var rewardTiers = map[string]Reward{
	"concern":     {Points: 80, Currency: 40},
	"not concern": {Points: 20, Currency: 10},
}

var titleCaser = cases.Title(language.English)

// RewardFor returns the grant for a species with the given endangered status.
func RewardFor(endangeredStatus string) Reward {
	status := strings.ToLower(strings.TrimSpace(endangeredStatus))
	if status == "" {
		status = "not concern"
	}
	if reward, ok := rewardTiers[status]; ok {
		return reward
	}
	return rewardTiers["not concern"]
}

// RewardDescription builds the human-readable ledger entry description.
func RewardDescription(commonName, endangeredStatus string) string {
	status := strings.ToLower(strings.TrimSpace(endangeredStatus))
	if status == "" {
		status = "not concern"
	}
	return fmt.Sprintf("Scanned %s - %s", commonName, titleCaser.String(status))
}

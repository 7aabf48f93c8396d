package aggregate

// DefaultNamespace prefixes every persisted key.
const DefaultNamespace = "wastewise:"

// View names, one persisted blob each.
const (
	viewLeaderboard = "leaderboard"
	viewWasteLogs   = "waste_logs"
	viewMetrics     = "metrics"
	viewWasteChart  = "waste_chart"
	viewWasteTypes  = "waste_types"
)

type keys struct {
	leaderboard string
	wasteLogs   string
	metrics     string
	wasteChart  string
	wasteTypes  string
}

func newKeys(ns string) keys {
	return keys{
		leaderboard: ns + viewLeaderboard,
		wasteLogs:   ns + viewWasteLogs,
		metrics:     ns + viewMetrics,
		wasteChart:  ns + viewWasteChart,
		wasteTypes:  ns + viewWasteTypes,
	}
}

func (k keys) all() []string {
	return []string{k.leaderboard, k.wasteLogs, k.metrics, k.wasteChart, k.wasteTypes}
}

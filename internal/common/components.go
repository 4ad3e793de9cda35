package common

const (
	ComponentChainReader  = "chain-reader"
	ComponentIndexer      = "indexer"
	ComponentStateManager = "state-manager"
	ComponentScheduler    = "scheduler"
	ComponentMaintenance  = "maintenance"
	ComponentAPI          = "api"
	ComponentNotifier     = "notifier"
)

var AllComponents = map[string]struct{}{
	ComponentChainReader:  {},
	ComponentIndexer:      {},
	ComponentStateManager: {},
	ComponentScheduler:    {},
	ComponentMaintenance:  {},
	ComponentAPI:          {},
	ComponentNotifier:     {},
}

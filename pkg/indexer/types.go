package indexer

// CycleResult summarises one indexing cycle.
// @Description Outcome of a single indexing cycle
type CycleResult struct {
	// Processed is the number of newly recorded events, including rejected and unknown ones
	Processed int `json:"processed" example:"3"`

	// LastVersion is the watermark after the cycle
	LastVersion uint64 `json:"lastVersion" example:"103"`

	// Transactions is the number of user transactions committed in the cycle
	Transactions int `json:"transactions" example:"3"`

	// Rejected is the number of game events that were logged but not applied
	Rejected int `json:"rejected" example:"0"`
}

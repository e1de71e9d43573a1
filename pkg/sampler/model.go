package sampler

// ProcessRecord is one process at one instant. Records are rebuilt on every
// pass and never mutated afterwards.
type ProcessRecord struct {
	PID  int `json:"pid"`
	PPID int `json:"ppid"` // -1 when unknown

	// Name is the reconstructed command line, or comm when it is empty.
	Name string `json:"name"`
	// User is the owner's login name, or the decimal uid if lookup fails.
	User string `json:"user"`

	RSSMiB     float64 `json:"rss_mib"`
	CPUPercent float64 `json:"cpu_percent"`
}

// SystemSnapshot holds machine-wide utilisation for one pass.
type SystemSnapshot struct {
	CPUPercent   float64 `json:"cpu_percent"`
	MemUsedMiB   float64 `json:"mem_used_mib"`
	MemTotalMiB  float64 `json:"mem_total_mib"`
	SwapUsedMiB  float64 `json:"swap_used_mib"`
	SwapTotalMiB float64 `json:"swap_total_mib"`
}

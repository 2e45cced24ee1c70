package entities

type HealthCPUs struct {
	Cores     int    `json:"cores"`
	ClockRate int    `json:"clockRate"`
	CacheSize int    `json:"cacheSize"`
	ModelName string `json:"modelName"`
}

// HealthResult carries node metadata. Diagnostics only, never required for
// correctness.
type HealthResult struct {
	Version  string     `json:"version"`
	Address  string     `json:"address"`
	CPUs     HealthCPUs `json:"cpus"`
	RAM      string     `json:"ram"`
	Disk     string     `json:"disk"`
	Location string     `json:"location"`
}

type HealthRes struct {
	RPCBaseRes
	Result *HealthResult `json:"result,omitempty"`
}

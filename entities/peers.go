package entities

type PeersResult struct {
	Peers []string `json:"peers"`
}

type PeersRes struct {
	RPCBaseRes
	Result *PeersResult `json:"result,omitempty"`
}

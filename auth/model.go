package auth

import "time"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type Peer struct {
	ID            uint32 `json:"id"`
	RPCAddr       string `json:"rpc_addr"`
	HeartbeatAddr string `json:"heartbeat_addr"`
	Status        string `json:"status"`
	Failures      int    `json:"failures"`
}

type GetPeersResponse struct {
	Peers []Peer `json:"peers"`
}

type Snapshot struct {
	NodeID      uint32    `json:"node_id"`
	Clock       uint64    `json:"clock"`
	CPUPercent  float64   `json:"cpu_percent"`
	MemPercent  float64   `json:"mem_percent"`
	MemTotalGB  uint64    `json:"mem_total_gb"`
	LoadAvg     float64   `json:"load_avg"`
	Processors  int       `json:"processors"`
	UptimeSec   int64     `json:"uptime_sec"`
	CollectedAt time.Time `json:"collected_at"`
}

type GetReportResponse struct {
	Coordinator uint32     `json:"coordinator"`
	Snapshots   []Snapshot `json:"snapshots"`
}

package membership

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePeers parses a comma-separated list of cluster members, where each
// member is written as "id=rpcAddr/heartbeatAddr".
func ParsePeers(s string) ([]Peer, error) {
	var peers []Peer

	seen := make(map[NodeID]struct{})

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		idPart, addrs, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("invalid member %q: missing '='", item)
		}

		id, err := strconv.ParseUint(strings.TrimSpace(idPart), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid member id %q: %w", idPart, err)
		}

		rpcAddr, hbAddr, ok := strings.Cut(addrs, "/")
		if !ok || rpcAddr == "" || hbAddr == "" {
			return nil, fmt.Errorf("invalid member %q: expected rpcAddr/heartbeatAddr", item)
		}

		if _, dup := seen[NodeID(id)]; dup {
			return nil, fmt.Errorf("duplicate member id %d", id)
		}

		seen[NodeID(id)] = struct{}{}

		peers = append(peers, Peer{
			ID:            NodeID(id),
			RPCAddr:       strings.TrimSpace(rpcAddr),
			HeartbeatAddr: strings.TrimSpace(hbAddr),
			Status:        StatusActive,
		})
	}

	return peers, nil
}

// FormatPeers is the inverse of ParsePeers.
func FormatPeers(peers []Peer) string {
	parts := make([]string, len(peers))
	for i, p := range peers {
		parts[i] = fmt.Sprintf("%d=%s/%s", p.ID, p.RPCAddr, p.HeartbeatAddr)
	}

	return strings.Join(parts, ",")
}

package main

import (
	"strings"
	"time"
)

var opts struct {
	Node struct {
		ID uint32 `long:"id" env:"ID" required:"true" description:"unique node id"`
	} `group:"node" namespace:"node" env-namespace:"NODE"`

	Cluster struct {
		Peers            string `long:"peers" env:"PEERS" description:"comma-separated list of cluster members as id=rpcAddr/heartbeatAddr, including this node"`
		FailureThreshold int    `long:"failure-threshold" env:"FAILURE_THRESHOLD" description:"consecutive failed probes before a peer is considered failed" default:"3"`
		CallTimeout      int    `long:"call-timeout" env:"CALL_TIMEOUT" description:"timeout of node-to-node calls (ms)" default:"2000"`
	} `group:"cluster" namespace:"cluster" env-namespace:"CLUSTER"`

	Heartbeat struct {
		Interval       int `long:"interval" env:"INTERVAL" description:"probe interval (ms)" default:"5000"`
		ConnectTimeout int `long:"connect-timeout" env:"CONNECT_TIMEOUT" description:"probe connect timeout (ms)" default:"2000"`
		ReadTimeout    int `long:"read-timeout" env:"READ_TIMEOUT" description:"probe read timeout (ms)" default:"2000"`
	} `group:"heartbeat" namespace:"heartbeat" env-namespace:"HEARTBEAT"`

	Election struct {
		DecisionWindow int `long:"decision-window" env:"DECISION_WINDOW" description:"time to wait for an ok answer before announcing (ms)" default:"3000"`
	} `group:"election" namespace:"election" env-namespace:"ELECTION"`

	Coordinator struct {
		Interval int `long:"interval" env:"INTERVAL" description:"collection interval (ms)" default:"10000"`
	} `group:"coordinator" namespace:"coordinator" env-namespace:"COORDINATOR"`

	Auth struct {
		BindAddr string `long:"bind-addr" env:"BIND_ADDR" description:"address of the observer auth service" default:":9090"`
		Username string `long:"username" env:"USERNAME" description:"observer username" default:"admin"`
		Password string `long:"password" env:"PASSWORD" description:"observer password" default:"admin"`
		TokenTTL int    `long:"token-ttl" env:"TOKEN_TTL" description:"lifetime of issued observer tokens (ms)" default:"3600000"`
	} `group:"auth" namespace:"auth" env-namespace:"AUTH"`

	Report struct {
		Group     string `long:"group" env:"GROUP" description:"multicast group for reports" default:"239.0.0.1:12345"`
		Interface string `long:"interface" env:"INTERFACE" description:"network interface for multicast, loopback if empty"`
	} `group:"report" namespace:"report" env-namespace:"REPORT"`

	Discovery struct {
		Join     string `long:"join" env:"JOIN" description:"comma-separated list of gossip addresses to discover peers through"`
		BindAddr string `long:"bind-addr" env:"BIND_ADDR" description:"gossip bind address" default:"127.0.0.1"`
		BindPort int    `long:"bind-port" env:"BIND_PORT" description:"gossip bind port" default:"7946"`
		Size     int    `long:"size" env:"SIZE" description:"number of nodes to wait for" default:"5"`
		RPCAddr  string `long:"rpc-addr" env:"RPC_ADDR" description:"rpc address of this node to advertise"`
		HBAddr   string `long:"heartbeat-addr" env:"HEARTBEAT_ADDR" description:"heartbeat address of this node to advertise"`
		Timeout  int    `long:"timeout" env:"TIMEOUT" description:"time to wait for all nodes (ms)" default:"60000"`
	} `group:"discovery" namespace:"discovery" env-namespace:"DISCOVERY"`

	Verbose bool `long:"verbose" description:"verbose mode" env:"VERBOSE"`
}

func parseAddrs(addrs string) []string {
	sl := strings.Split(addrs, ",")
	res := make([]string, 0, len(sl))

	for _, addr := range sl {
		trimmed := strings.TrimSpace(addr)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}

	return res
}

func millis(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

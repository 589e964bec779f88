// Package peer defines the cluster's node identity: the (host, port) tuple
// shared by the hash ring, cluster membership, and the outbound peer
// client.
package peer

import "fmt"

// ID identifies a cluster node by its RPC bind address. Equality is
// structural.
type ID struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// String renders the "host:port" display form used as the ring's virtual-key
// seed and as the deterministic tie-break between colliding virtual keys.
func (n ID) String() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// Equal reports structural equality.
func (n ID) Equal(other ID) bool {
	return n.Host == other.Host && n.Port == other.Port
}

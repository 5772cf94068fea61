package report

import (
	"fmt"
	"net"
)

const (
	DefaultGroup = "239.0.0.1:12345"
	maxDatagram  = 65507
)

// LoopbackInterface returns the first loopback interface that is up.
func LoopbackInterface() (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	for i := range ifaces {
		iface := ifaces[i]
		if iface.Flags&net.FlagLoopback != 0 && iface.Flags&net.FlagUp != 0 {
			return &iface, nil
		}
	}

	return nil, fmt.Errorf("no loopback interface found")
}

// resolveInterface returns the interface by name, or the loopback one if the
// name is empty.
func resolveInterface(name string) (*net.Interface, error) {
	if name == "" {
		return LoopbackInterface()
	}

	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find interface %s: %w", name, err)
	}

	return iface, nil
}

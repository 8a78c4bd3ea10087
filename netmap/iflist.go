package netmap

import "net"

// IfInfo describes one OS network interface eligible for attachment
// by name.
//
// The framework itself has no interface-enumeration primitive of its
// own (unlike yerden-go-snf's GetIfAddrs, which lists only the
// vendor's capture-capable ports), so this walks the OS interface
// table directly to give callers something to build an identifier
// from.
type IfInfo struct {
	Name         string
	HardwareAddr net.HardwareAddr
	Index        int
	Up           bool
}

// ListInterfaces enumerates OS network interfaces that could serve as
// the base name in an endpoint identifier (hardware attach or host
// attach). It does not filter by framework capability; Builder.Open
// will report KindBindFail for names the framework rejects.
func ListInterfaces() ([]IfInfo, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, errIO(err)
	}

	out := make([]IfInfo, 0, len(ifaces))
	for _, ifc := range ifaces {
		out = append(out, IfInfo{
			Name:         ifc.Name,
			HardwareAddr: ifc.HardwareAddr,
			Index:        ifc.Index,
			Up:           ifc.Flags&net.FlagUp != 0,
		})
	}
	return out, nil
}

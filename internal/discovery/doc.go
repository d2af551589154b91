// Package discovery finds LED controllers on the local network over mDNS.
//
// Controllers advertise an "_http._tcp" service. A service counts as a
// controller when it carries an "api" TXT record naming its API root, or,
// for firmware that does not publish TXT records, when its hostname matches
// DefaultHostPattern. The mock device advertises itself the same way, so
// it can be found like real hardware.
//
// # Usage Example
//
//	devices, err := discovery.Scan(ctx, 5*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range devices {
//	    fmt.Println(d.Name(), d.BaseURL())
//	}
//
// # Network Requirements
//
// Multicast must be allowed on the interface (UDP port 5353). A controller
// in setup mode is usually reached through its own access point and is not
// discoverable; use the default setup address instead.
package discovery

// Package netmon implements the process-wide network connectivity
// monitor. It keeps the last state reported by the platform
// connectivity feed, derives a single "usable" predicate from it, and
// fans state changes out to subscribers.
package netmon

// Reachability is the tri-state result of the platform's reachability
// probe. Unknown means the probe has not settled yet.
type Reachability string

const (
	// ReachabilityUnknown means no probe result is available.
	ReachabilityUnknown Reachability = "unknown"

	// ReachabilityYes means the probe confirmed internet reachability.
	ReachabilityYes Reachability = "yes"

	// ReachabilityNo means the probe confirmed the network is a dead end
	// (e.g. captive portal, no route).
	ReachabilityNo Reachability = "no"
)

// Transport identifies the active network interface kind.
type Transport string

const (
	TransportWifi     Transport = "wifi"
	TransportCellular Transport = "cellular"
	TransportOther    Transport = "other"
	TransportNone     Transport = "none"
)

// State is a snapshot of device connectivity as last reported by the
// platform.
type State struct {
	// Connected is whether any network interface is up.
	Connected bool `json:"connected"`

	// Reachable is the reachability probe result.
	Reachable Reachability `json:"reachable"`

	// Transport is the active interface kind.
	Transport Transport `json:"transport"`
}

// DefaultState is the state assumed before the first platform signal:
// not connected, reachability unknown. The layer starts offline, not
// optimistically online.
func DefaultState() State {
	return State{
		Connected: false,
		Reachable: ReachabilityUnknown,
		Transport: TransportNone,
	}
}

// Usable reports whether a live network attempt should be preferred
// over serving from cache. Unknown reachability does not disqualify a
// connected interface: the bias is optimistic once connected, since the
// request itself will confirm reachability either way.
func (s State) Usable() bool {
	return s.Connected && s.Reachable != ReachabilityNo
}

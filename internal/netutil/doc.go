// Package netutil checks local TCP ports for the access tunnel: whether a
// port is already taken before the tunnel starts, and when it begins
// accepting connections afterwards.
package netutil

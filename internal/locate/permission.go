package locate

import "context"

// Permission is the outcome of a location permission request.
type Permission bool

const (
	Denied  Permission = false
	Granted Permission = true
)

func (p Permission) String() string {
	if p {
		return "granted"
	}
	return "denied"
}

// PermissionGate obtains the device location permission.
type PermissionGate interface {
	RequestAccess(ctx context.Context) (Permission, error)
}

// StaticGate answers with a permission decided up front, e.g. by a command
// line flag or by what a browser client reported.
type StaticGate Permission

func (g StaticGate) RequestAccess(context.Context) (Permission, error) {
	return Permission(g), nil
}

// PositionSource reports the current device position.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Coordinate, error)
}

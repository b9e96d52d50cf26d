// Package access is the authorization kernel. Every content or metadata
// request goes through Resolve before anything is served.
package access

// Action is what a caller wants to do with a file.
type Action string

const (
	ActionView     Action = "view"
	ActionDownload Action = "download"
	ActionShare    Action = "share"
)

// DenyReason is machine-readable so the serving boundary can pick the right
// status code without parsing strings.
type DenyReason string

const (
	DenyNotFound         DenyReason = "not_found"
	DenyExpired          DenyReason = "expired"
	DenyNoMatchingRule   DenyReason = "no_matching_rule"
	DenyExhausted        DenyReason = "exhausted"
	DenyPasswordRequired DenyReason = "password_required"
	DenyPasswordInvalid  DenyReason = "password_invalid"
)

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(r DenyReason) Decision {
	return Decision{Reason: r}
}

// Capabilities is the closed set of administrative permissions. Built once
// from the role when the caller is authenticated, never re-derived per check.
type Capabilities struct {
	ManageMedia  bool
	EditMedia    bool
	ManageGroups bool
}

// Caller identifies who is asking. The zero value is an anonymous caller
// with no capabilities.
type Caller struct {
	ID   string
	Caps Capabilities
}

func (c Caller) Anonymous() bool {
	return c.ID == ""
}

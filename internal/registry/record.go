// Package registry persists what imirun knows about its managed EC2
// instances. Records are keyed by a small 0-based index chosen by the
// operator, not by the cloud provider.
package registry

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a managed instance.
type State string

const (
	StateNone       State = "none"
	StatePending    State = "pending"
	StateRunning    State = "running"
	StateStopped    State = "stopped"
	StateTerminated State = "terminated"
)

// Record holds everything persisted about one managed instance.
type Record struct {
	Index         int        `json:"index"`
	InstanceID    string     `json:"instance_id,omitempty"`
	PublicIP      string     `json:"public_ip,omitempty"`
	SpotRequestID string     `json:"spot_request_id,omitempty"`
	InstanceType  string     `json:"instance_type,omitempty"`
	State         State      `json:"state"`
	LaunchedAt    *time.Time `json:"launched_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Address returns the public address for remote sessions.
// Fails with NoAddressError when the record has no reachable IP.
func (r Record) Address() (string, error) {
	if r.PublicIP == "" || r.State != StateRunning {
		return "", &NoAddressError{Index: r.Index, State: r.State}
	}
	return r.PublicIP, nil
}

// NotFoundError reports an index with no registry record.
type NotFoundError struct {
	Index int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no instance record for index %d", e.Index)
}

// NoAddressError reports a record with no reachable public address.
type NoAddressError struct {
	Index int
	State State
}

func (e *NoAddressError) Error() string {
	if e.State != StateRunning {
		return fmt.Sprintf("instance %d is %s, not running", e.Index, e.State)
	}
	return fmt.Sprintf("instance %d has no public address", e.Index)
}

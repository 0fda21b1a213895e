package rights

import (
	"fmt"
	"strings"
)

type Capability string

const (
	CapView      Capability = "view"
	CapAdd       Capability = "add"
	CapEdit      Capability = "edit"
	CapDelete    Capability = "delete"
	CapDashboard Capability = "dashboard"
)

// Capabilities is the fixed column order used by serializers and reports.
var Capabilities = []Capability{CapView, CapAdd, CapEdit, CapDelete, CapDashboard}

func ParseCapability(raw string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case CapView, CapAdd, CapEdit, CapDelete, CapDashboard:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCapability, raw)
}

type Permissions struct {
	View      bool `json:"view"`
	Add       bool `json:"add"`
	Edit      bool `json:"edit"`
	Delete    bool `json:"delete"`
	Dashboard bool `json:"dashboard"`
}

func (p Permissions) Get(c Capability) bool {
	switch c {
	case CapView:
		return p.View
	case CapAdd:
		return p.Add
	case CapEdit:
		return p.Edit
	case CapDelete:
		return p.Delete
	case CapDashboard:
		return p.Dashboard
	}
	return false
}

// With returns a copy of p with capability c set to value. Unknown
// capabilities leave p unchanged.
func (p Permissions) With(c Capability, value bool) Permissions {
	switch c {
	case CapView:
		p.View = value
	case CapAdd:
		p.Add = value
	case CapEdit:
		p.Edit = value
	case CapDelete:
		p.Delete = value
	case CapDashboard:
		p.Dashboard = value
	}
	return p
}

func (p Permissions) Any() bool {
	return p.View || p.Add || p.Edit || p.Delete || p.Dashboard
}

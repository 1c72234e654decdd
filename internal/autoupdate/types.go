package autoupdate

import "github.com/Masterminds/semver/v3"

// UpdateType represents the type of updatable item
type UpdateType string

const (
	UpdateTypeShell  UpdateType = "shell"
	UpdateTypePlugin UpdateType = "plugin"
)

// Direction tells whether an update moves to a newer or an older version.
// It is empty when either version is not semver or both are equal.
type Direction string

const (
	DirectionNone      Direction = ""
	DirectionUpgrade   Direction = "upgrade"
	DirectionDowngrade Direction = "downgrade"
)

// UpdateInfo contains information about an available update
type UpdateInfo struct {
	Type       UpdateType
	Name       string
	CurrentVer string
	RemoteVer  string
	HasUpdate  bool
	Direction  Direction
	Path       string // remote path relative to the source base URL
}

// CheckResult contains the result of update check
type CheckResult struct {
	Source        string
	Shell         UpdateInfo
	Plugins       []UpdateInfo
	UpdatePending bool // a staged shell binary is waiting for a restart
	HasAnyUpdate  bool
	Errors        []error // Non-fatal errors during check
}

// TotalUpdates returns the total number of available updates
func (r *CheckResult) TotalUpdates() int {
	count := 0
	if r.Shell.HasUpdate {
		count++
	}
	for _, p := range r.Plugins {
		if p.HasUpdate {
			count++
		}
	}
	return count
}

// Compare reports the direction from current to remote. Versions that are
// not semver, like "nightly", have no direction.
func Compare(current, remote string) Direction {
	cv, err := semver.NewVersion(current)
	if err != nil {
		return DirectionNone
	}
	rv, err := semver.NewVersion(remote)
	if err != nil {
		return DirectionNone
	}
	switch cv.Compare(rv) {
	case -1:
		return DirectionUpgrade
	case 1:
		return DirectionDowngrade
	default:
		return DirectionNone
	}
}

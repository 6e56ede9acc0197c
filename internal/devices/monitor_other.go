//go:build !linux

package devices

import "errors"

func openNetlinkMonitor() (ueventMonitor, error) {
	return nil, errors.New("hotplug monitoring requires linux netlink")
}

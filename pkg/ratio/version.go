// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import "fmt"

// SoftwareVersion is a firmware version packed as decimal digit groups:
// M MM PP BBB (major, minor, patch, build). 40126016 is 4.1.26.16.
type SoftwareVersion uint32

// Major returns the major version
func (v SoftwareVersion) Major() uint32 {
	return uint32(v) / 10000000
}

// Minor returns the minor version
func (v SoftwareVersion) Minor() uint32 {
	return uint32(v) / 100000 % 100
}

// Patch returns the patch level
func (v SoftwareVersion) Patch() uint32 {
	return uint32(v) / 1000 % 100
}

// Build returns the build number
func (v SoftwareVersion) Build() uint32 {
	return uint32(v) % 1000
}

func (v SoftwareVersion) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major(), v.Minor(), v.Patch(), v.Build())
}

// SPDX-License-Identifier: MPL-2.0

package platform

import "strings"

// reservedDeviceNames cannot name a file or folder on Windows, whatever the
// extension.
var reservedDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsReservedName reports whether name is a Windows device name such as "CON"
// or "lpt1.txt". Only the part before the first dot is compared.
func IsReservedName(name string) bool {
	stem, _, _ := strings.Cut(name, ".")
	return reservedDeviceNames[strings.ToUpper(strings.TrimRight(stem, " "))]
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"sync"
)

// ConfigDirEnv relocates the config directory, e.g. for services that keep
// their config and SSH host key next to each other.
const ConfigDirEnv = "OMNIAUTO_CONFIG_DIR"

var (
	overrideMu        sync.RWMutex
	configDirOverride string
)

// SetConfigDirOverride pins ConfigDir to dir, ahead of ConfigDirEnv. Tests use
// it because os.UserHomeDir ignores HOME on some platforms.
func SetConfigDirOverride(dir string) {
	overrideMu.Lock()
	defer overrideMu.Unlock()
	configDirOverride = dir
}

// Reset clears the override.
func Reset() {
	SetConfigDirOverride("")
}

func configDirFromOverrides() string {
	overrideMu.RLock()
	dir := configDirOverride
	overrideMu.RUnlock()
	if dir != "" {
		return dir
	}
	return os.Getenv(ConfigDirEnv)
}

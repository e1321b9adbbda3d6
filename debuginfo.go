// FILE: lixenwraith/logsetup/debuginfo.go
package logsetup

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/host"
)

// LogDebugInfo logs the Go runtime version and the host platform at level
func (l *Logger) LogDebugInfo(level int64) {
	if !l.Enabled(level) {
		return
	}
	l.emit(level, 1, goVersionLine(), nil)
	l.emit(level, 1, platformLine(), nil)
}

func goVersionLine() string {
	return fmt.Sprintf("go version %s %s/%s, %d cpus", runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
}

func platformLine() string {
	info, err := host.Info()
	if err != nil {
		return fmt.Sprintf("running on %s (platform details unavailable: %v)", runtime.GOOS, err)
	}
	return fmt.Sprintf("running on %s version %s (%s %s, kernel %s %s)",
		info.OS, info.PlatformVersion, info.Platform, info.PlatformFamily, info.KernelVersion, info.KernelArch)
}

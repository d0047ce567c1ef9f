package system

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is the performance report printed with --stats.
type Stats struct {
	Build      string
	Input      string
	Frames     int
	Total      time.Duration
	Render     time.Duration
	Mux        time.Duration
	RSSBytes   uint64
	SystemUsed float64 // percent
}

// EffectiveFPS is frames rendered per wall-clock second.
func (s Stats) EffectiveFPS() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Total.Seconds()
}

// CollectMemory fills in process RSS and system memory usage. Failures
// leave the fields zero.
func (s *Stats) CollectMemory() {
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := p.MemoryInfo(); err == nil {
			s.RSSBytes = info.RSS
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.SystemUsed = vm.UsedPercent
	}
}

func (s Stats) Report() string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Frames: %d\n"+
			"Total Time: %.2fs\n"+
			"Rendering: %.2fs\n"+
			"Muxing: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Process RSS: %.1f MiB\n"+
			"System Memory Used: %.1f%%\n"+
			"----------------------------\n",
		s.Build, s.Frames, s.Total.Seconds(), s.Render.Seconds(), s.Mux.Seconds(),
		s.EffectiveFPS(), float64(s.RSSBytes)/(1<<20), s.SystemUsed,
	)
}

// AppendLog дописывает строку отчета в файл бенчмарков.
func (s Stats) AppendLog(path string, now time.Time) error {
	entry := fmt.Sprintf("[%s] Build: %s | Input: %s | Frames: %d | Total: %.2fs | Render: %.2fs | Mux: %.2fs | FPS: %.2f | RSS: %.1fMiB\n",
		now.Format("2006-01-02 15:04:05"),
		s.Build,
		filepath.Base(s.Input),
		s.Frames,
		s.Total.Seconds(),
		s.Render.Seconds(),
		s.Mux.Seconds(),
		s.EffectiveFPS(),
		float64(s.RSSBytes)/(1<<20),
	)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(entry)
	return err
}

package observability

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessStats - снимок потребления ресурсов процессом
type ProcessStats struct {
	RSS        uint64  // Резидентная память, байт
	HeapAlloc  uint64  // Выделено в куче Go, байт
	CPUPercent float64 // Загрузка CPU процессом
	Goroutines int
	Uptime     time.Duration
}

var startTime = time.Now()

// ReadProcessStats собирает статистику текущего процесса.
// Если метрики процесса недоступны, CPU берётся по системе, а RSS остаётся 0.
func ReadProcessStats() (ProcessStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats := ProcessStats{
		HeapAlloc:  m.HeapAlloc,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(startTime),
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return stats, err
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		stats.RSS = mem.RSS
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, попробуем системную
		cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil || len(cpuPercents) == 0 {
			return stats, err
		}
		cpuPercent = cpuPercents[0]
	}
	stats.CPUPercent = cpuPercent
	return stats, nil
}

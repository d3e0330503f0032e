package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// handleHealth returns a simple health check response
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "ok",
		"service": "quantum-engine",
		"uptime":  time.Since(s.startupTime).String(),
	}

	writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus returns process and host resource usage along with
// database and simulation statistics.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := map[string]interface{}{
		"uptime":     time.Since(s.startupTime).String(),
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc_mb":       memStats.Alloc / 1024 / 1024,
			"total_alloc_mb": memStats.TotalAlloc / 1024 / 1024,
			"sys_mb":         memStats.Sys / 1024 / 1024,
			"num_gc":         memStats.NumGC,
		},
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		status["cpu_percent"] = cpuPercent[0]
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		status["host_memory"] = map[string]interface{}{
			"total_mb":     vm.Total / 1024 / 1024,
			"used_mb":      vm.Used / 1024 / 1024,
			"used_percent": vm.UsedPercent,
		}
	}

	if s.runsDB != nil {
		if dbStats, err := s.runsDB.GetStats(); err == nil {
			status["database"] = dbStats
		}
	}

	status["simulation"] = s.service.Processor().Statistics()
	status["feed_subscribers"] = s.service.Feed().SubscriberCount()

	writeJSON(w, http.StatusOK, status)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

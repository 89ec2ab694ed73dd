package bot

import (
	"fmt"
	"strings"
	"time"

	"codeberg.org/mutker/servwatch/internal/collector"
	"codeberg.org/mutker/servwatch/internal/history"
)

func helpText() string {
	return `<b>Available Commands:</b>
/status - Server overview
/cpu - CPU detailed information
/memory - Memory usage
/disk - Disk usage
/gpu - GPU information
/temps - Sensor temperatures
/services - Running services
/containers - Docker containers
/tmux - Tmux sessions
/top - Top processes
/uptime - Server uptime
/help - Show this help`
}

func statusText(server string, s collector.Snapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>%s Status</b>\n\n", server)
	fmt.Fprintf(&sb, "<b>Uptime:</b> %s\n", formatUptime(s.Uptime))
	fmt.Fprintf(&sb, "<b>CPU:</b> %.1f%%\n", s.CPUPercent)
	fmt.Fprintf(&sb, "<b>Memory:</b> %.1f%% (%s / %s)\n",
		s.Memory.Percent, formatBytes(s.Memory.Used), formatBytes(s.Memory.Total))
	fmt.Fprintf(&sb, "<b>Load:</b> %.2f, %.2f, %.2f",
		s.Load.Load1, s.Load.Load5, s.Load.Load15)

	for _, g := range s.GPUs {
		fmt.Fprintf(&sb, "\n<b>GPU %d:</b> %d%% | %d°C | %.1f%% VRAM",
			g.Index, g.Utilization, g.Temperature, g.MemoryPercent)
	}

	return sb.String()
}

func cpuText(detail collector.CPUDetail, loadAvg collector.LoadAverage) string {
	var sb strings.Builder

	sb.WriteString("<b>CPU Information</b>\n\n")
	fmt.Fprintf(&sb, "<b>Usage:</b> %.1f%%\n", detail.Percent)
	fmt.Fprintf(&sb, "<b>Cores:</b> %d physical, %d logical\n", detail.Cores, detail.Threads)
	fmt.Fprintf(&sb, "<b>Load Average:</b> %.2f, %.2f, %.2f",
		loadAvg.Load1, loadAvg.Load5, loadAvg.Load15)

	if detail.FreqCurrent > 0 {
		fmt.Fprintf(&sb, "\n<b>Frequency:</b> %.0f MHz", detail.FreqCurrent)
	}

	if len(detail.PerCore) > 0 {
		sb.WriteString("\n\n<b>Per Core Usage:</b>")
		for i, pct := range detail.PerCore {
			fmt.Fprintf(&sb, "\n  Core %d: %.1f%%", i, pct)
		}
	}

	return sb.String()
}

func memoryText(m collector.MemoryInfo) string {
	return fmt.Sprintf(`<b>Memory Information</b>

<b>Total:</b> %s
<b>Used:</b> %s (%.1f%%)
<b>Available:</b> %s`,
		formatBytes(m.Total), formatBytes(m.Used), m.Percent, formatBytes(m.Available))
}

func diskText(disks []collector.DiskUsage) string {
	if len(disks) == 0 {
		return "No disks found."
	}

	var sb strings.Builder
	sb.WriteString("<b>Disk Usage</b>\n")
	for _, d := range disks {
		fmt.Fprintf(&sb, "\n<b>%s</b>\n  %s / %s (%.1f%%)\n",
			d.Mountpoint, formatBytes(d.Used), formatBytes(d.Total), d.Percent)
	}

	return sb.String()
}

func gpuText(gpus []collector.GPUReading) string {
	if len(gpus) == 0 {
		return "No GPU readings available."
	}

	var sb strings.Builder
	sb.WriteString("<b>GPU Information</b>\n")
	for _, g := range gpus {
		fmt.Fprintf(&sb, "\n<b>GPU %d: %s</b>\n", g.Index, g.Name)
		fmt.Fprintf(&sb, "  Temperature: %d°C\n", g.Temperature)
		fmt.Fprintf(&sb, "  GPU Usage: %d%%\n", g.Utilization)
		fmt.Fprintf(&sb, "  Memory: %s / %s (%.1f%%)\n",
			formatBytes(g.MemoryUsed), formatBytes(g.MemoryTotal), g.MemoryPercent)
		if g.PowerLimit > 0 {
			fmt.Fprintf(&sb, "  Power: %.1fW / %.1fW\n", g.PowerUsage, g.PowerLimit)
		}
	}

	return sb.String()
}

func tempsText(temps []collector.SensorTemperature) string {
	var sb strings.Builder
	sb.WriteString("<b>Sensor Temperatures</b>\n")
	for _, t := range temps {
		fmt.Fprintf(&sb, "\n  %s: %.1f°C", t.SensorKey, t.Temperature)
		if t.High > 0 {
			fmt.Fprintf(&sb, " (high: %.0f°C)", t.High)
		}
	}

	return sb.String()
}

func servicesText(services []collector.ServiceInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Running Services (%d)</b>\n\n", len(services))
	for _, svc := range services {
		name := svc.Name
		if len(name) > 30 {
			name = name[:30]
		}
		fmt.Fprintf(&sb, "<code>%s</code>\n", name)
	}

	return sb.String()
}

func containersText(containers []collector.ContainerInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Docker Containers (%d)</b>\n", len(containers))
	for _, c := range containers {
		image := c.Image
		if len(image) > 30 {
			image = image[:30]
		}
		fmt.Fprintf(&sb, "\n<b>%s</b>\n  Image: <code>%s</code>\n  Status: %s\n",
			c.Name, image, c.Status)
	}

	return sb.String()
}

func tmuxText(sessions []collector.TmuxSession) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Tmux Sessions (%d)</b>\n", len(sessions))
	for _, s := range sessions {
		state := "detached"
		if s.Attached {
			state = "attached"
		}
		fmt.Fprintf(&sb, "\n<b>%s</b> (%s)\n  Windows: %d\n  Created: %s\n",
			s.Name, state, s.Windows, s.Created.Format("2006-01-02 15:04"))
	}

	return sb.String()
}

func topText(procs []collector.ProcessInfo) string {
	if len(procs) == 0 {
		return "No process information available."
	}

	var sb strings.Builder
	sb.WriteString("<b>Top Processes (by CPU)</b>\n\n")
	for _, p := range procs {
		name := p.Name
		if len(name) > 20 {
			name = name[:20]
		}
		fmt.Fprintf(&sb, "<code>%-20s</code> CPU: %.1f%% MEM: %.1f%%\n",
			name, p.CPUPercent, p.MemPercent)
	}

	return sb.String()
}

func dailyReportText(server string, s collector.Snapshot, summary history.Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>📊 Daily Report - %s</b>\n\n", server)
	fmt.Fprintf(&sb, "<b>Uptime:</b> %s\n", formatUptime(s.Uptime))
	fmt.Fprintf(&sb, "<b>CPU:</b> %.1f%%\n", s.CPUPercent)
	fmt.Fprintf(&sb, "<b>Memory:</b> %.1f%% (%s / %s)\n",
		s.Memory.Percent, formatBytes(s.Memory.Used), formatBytes(s.Memory.Total))
	fmt.Fprintf(&sb, "<b>Load:</b> %.2f, %.2f, %.2f\n",
		s.Load.Load1, s.Load.Load5, s.Load.Load15)

	sb.WriteString("\n<b>Disk Usage:</b>")
	for _, d := range s.Disks {
		fmt.Fprintf(&sb, "\n  %s: %.1f%%", d.Mountpoint, d.Percent)
	}

	if len(s.GPUs) > 0 {
		sb.WriteString("\n\n<b>GPU Status:</b>")
		for _, g := range s.GPUs {
			fmt.Fprintf(&sb, "\n  GPU %d: %d%% | %d°C | %.1f%% VRAM",
				g.Index, g.Utilization, g.Temperature, g.MemoryPercent)
		}
	}

	if summary.Samples > 0 {
		sb.WriteString("\n\n<b>Last 24h:</b>")
		fmt.Fprintf(&sb, "\n  CPU: avg %.1f%%, max %.1f%%", summary.AvgCPU, summary.MaxCPU)
		fmt.Fprintf(&sb, "\n  Memory: avg %.1f%%, max %.1f%%", summary.AvgMemory, summary.MaxMemory)
		if summary.MaxDisk > 0 {
			fmt.Fprintf(&sb, "\n  Disk max: %.1f%%", summary.MaxDisk)
		}
		if summary.MaxGPUTemp > 0 {
			fmt.Fprintf(&sb, "\n  GPU temp max: %d°C", summary.MaxGPUTemp)
		}
	}

	return sb.String()
}

func formatBytes(n uint64) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGTP"[exp])
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

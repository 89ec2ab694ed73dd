package collector

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/servwatch/internal/errors"
	"github.com/shirou/gopsutil/v3/host"
)

const execTimeout = 10 * time.Second

const tmuxSessionFormat = "#{session_name}|#{session_windows}|#{session_created}|#{session_attached}"

// Temperatures returns hardware sensor readings. A host without exposed
// sensors yields an empty list; some sensors need root, so a partial
// read with results is not an error.
func (s *System) Temperatures() ([]SensorTemperature, error) {
	stats, err := host.SensorsTemperatures()
	if err != nil && len(stats) == 0 {
		return nil, errors.New().Wrap(ErrSensorRead, err)
	}

	temps := make([]SensorTemperature, 0, len(stats))
	for _, stat := range stats {
		temps = append(temps, SensorTemperature{
			SensorKey:   stat.SensorKey,
			Temperature: stat.Temperature,
			High:        stat.High,
		})
	}

	return temps, nil
}

// RunningServices lists running systemd services, at most limit of them.
func (s *System) RunningServices(limit int) ([]ServiceInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "systemctl", "list-units",
		"--type=service", "--state=running", "--no-pager", "--plain").Output()
	if err != nil {
		return nil, errors.New().Wrap(ErrServiceQuery, err)
	}

	services := parseServiceList(string(out))
	if limit > 0 && len(services) > limit {
		services = services[:limit]
	}

	return services, nil
}

func parseServiceList(out string) []ServiceInfo {
	var services []ServiceInfo
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Fields(line)
		// Header and footer lines have no .service unit column.
		if len(parts) < 4 || !strings.HasSuffix(parts[0], ".service") {
			continue
		}

		services = append(services, ServiceInfo{
			Name:   strings.TrimSuffix(parts[0], ".service"),
			Active: parts[2],
			Sub:    parts[3],
		})
	}

	return services
}

// DockerContainers lists running containers via the docker CLI.
func (s *System) DockerContainers() ([]ContainerInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "docker", "ps", "--format", "{{json .}}").Output()
	if err != nil {
		return nil, errors.New().Wrap(ErrContainerList, err)
	}

	return parseContainerList(string(out)), nil
}

func parseContainerList(out string) []ContainerInfo {
	var containers []ContainerInfo
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}

		var row struct {
			Names  string `json:"Names"`
			Image  string `json:"Image"`
			Status string `json:"Status"`
			Ports  string `json:"Ports"`
		}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			continue
		}

		containers = append(containers, ContainerInfo{
			Name:   row.Names,
			Image:  row.Image,
			Status: row.Status,
			Ports:  row.Ports,
		})
	}

	return containers
}

// TmuxSessions lists tmux sessions for the daemon's user.
func (s *System) TmuxSessions() ([]TmuxSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), execTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "tmux", "list-sessions", "-F", tmuxSessionFormat).Output()
	if err != nil {
		return nil, errors.New().Wrap(ErrTmuxQuery, err)
	}

	return parseTmuxSessions(string(out)), nil
}

func parseTmuxSessions(out string) []TmuxSession {
	var sessions []TmuxSession
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, "|")
		if len(parts) != 4 {
			continue
		}

		windows, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		created, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}

		sessions = append(sessions, TmuxSession{
			Name:     parts[0],
			Windows:  windows,
			Created:  time.Unix(created, 0),
			Attached: parts[3] == "1",
		})
	}

	return sessions
}

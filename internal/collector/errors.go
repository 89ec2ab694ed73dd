package collector

import "codeberg.org/mutker/servwatch/internal/errors"

const (
	ErrCPURead       = errors.ErrorCode("collector_cpu_read_failed")
	ErrMemoryRead    = errors.ErrorCode("collector_memory_read_failed")
	ErrDiskRead      = errors.ErrorCode("collector_disk_read_failed")
	ErrLoadRead      = errors.ErrorCode("collector_load_read_failed")
	ErrUptimeRead    = errors.ErrorCode("collector_uptime_read_failed")
	ErrNetRead       = errors.ErrorCode("collector_net_read_failed")
	ErrProcessRead   = errors.ErrorCode("collector_process_read_failed")
	ErrSensorRead    = errors.ErrorCode("collector_sensor_read_failed")
	ErrServiceQuery  = errors.ErrorCode("collector_service_query_failed")
	ErrContainerList = errors.ErrorCode("collector_container_list_failed")
	ErrTmuxQuery     = errors.ErrorCode("collector_tmux_query_failed")
	ErrGPUInitFailed = errors.ErrorCode("collector_gpu_init_failed")
	ErrGPURead       = errors.ErrorCode("collector_gpu_read_failed")
)

// Package host reads instantaneous resource metrics from the local host.
package host

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// Client reads host counters through gopsutil. Every method may fail on
// platforms where the underlying counter is unavailable.
type Client struct {
	diskPath string
	pid      int32
}

// NewClient creates a host client measuring disk usage at diskPath.
func NewClient(diskPath string) *Client {
	if diskPath == "" {
		diskPath = "/"
	}
	return &Client{diskPath: diskPath, pid: int32(os.Getpid())}
}

// CPUPercent returns total CPU utilisation since the previous call.
// The first call measures against boot time.
func (c *Client) CPUPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("cpu percent: no data")
	}
	return clamp(percents[0]), nil
}

// MemoryPercent returns used virtual memory as a percentage.
func (c *Client) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("virtual memory: %w", err)
	}
	return clamp(vm.UsedPercent), nil
}

// DiskPercent returns used space on the configured mount as a percentage.
func (c *Client) DiskPercent(ctx context.Context) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, c.diskPath)
	if err != nil {
		return 0, fmt.Errorf("disk usage %s: %w", c.diskPath, err)
	}
	return clamp(usage.UsedPercent), nil
}

// NetworkIO returns cumulative bytes sent and received across all interfaces.
func (c *Client) NetworkIO(ctx context.Context) (sent, recv uint64, err error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return 0, 0, fmt.Errorf("net io counters: %w", err)
	}
	for _, ctr := range counters {
		sent += ctr.BytesSent
		recv += ctr.BytesRecv
	}
	return sent, recv, nil
}

// ActiveConnections returns the number of established TCP connections.
func (c *Client) ActiveConnections(ctx context.Context) (int, error) {
	conns, err := net.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return 0, fmt.Errorf("tcp connections: %w", err)
	}
	count := 0
	for _, conn := range conns {
		if conn.Status == "ESTABLISHED" {
			count++
		}
	}
	return count, nil
}

// ProcessCount returns the number of processes on the host.
func (c *Client) ProcessCount(ctx context.Context) (int, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("process list: %w", err)
	}
	return len(pids), nil
}

// ThreadCount returns the number of threads in this process.
func (c *Client) ThreadCount(ctx context.Context) (int, error) {
	p, err := process.NewProcessWithContext(ctx, c.pid)
	if err != nil {
		return 0, fmt.Errorf("self process: %w", err)
	}
	n, err := p.NumThreadsWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("thread count: %w", err)
	}
	return int(n), nil
}

// OpenFDs returns the number of open file descriptors held by this process.
// Not supported on every platform.
func (c *Client) OpenFDs(ctx context.Context) (int, error) {
	p, err := process.NewProcessWithContext(ctx, c.pid)
	if err != nil {
		return 0, fmt.Errorf("self process: %w", err)
	}
	n, err := p.NumFDsWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("open fds: %w", err)
	}
	return int(n), nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

package crawlers

import (
	"fmt"
	"time"

	"github.com/RecoveryAshes/ApiDocFetch/internal/models"
	"github.com/RecoveryAshes/ApiDocFetch/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// browserMemoryNeed 浏览器模式预计需要的最小可用内存
const browserMemoryNeed = 500 * 1024 * 1024

// ResourceSnapshot 运行前的系统资源快照
type ResourceSnapshot struct {
	TotalMemory     uint64  // 系统总内存(字节)
	AvailableMemory uint64  // 系统可用内存(字节)
	CPUUsage        float64 // CPU使用率(%)
	MemoryPressure  string  // 内存压力等级
}

// CheckResources 运行前检查系统资源
// 浏览器模式下内存紧张会显著拖慢渲染,提前给出警告而不是中途卡死
func CheckResources(mode models.CrawlMode) (*ResourceSnapshot, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("获取系统内存失败: %w", err)
	}

	// 100毫秒采样间隔,避免阻塞过久
	var cpuUsage float64
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		utils.Warnf("获取CPU使用率失败: %v", err)
	} else {
		cpuUsage = percentages[0]
	}

	snapshot := &ResourceSnapshot{
		TotalMemory:     vmStat.Total,
		AvailableMemory: vmStat.Available,
		CPUUsage:        cpuUsage,
		MemoryPressure:  pressureLevel(vmStat.Available),
	}

	utils.Infof("系统总内存: %.2f GB, 可用: %.2f GB, CPU: %.1f%%",
		float64(snapshot.TotalMemory)/(1024*1024*1024),
		float64(snapshot.AvailableMemory)/(1024*1024*1024),
		snapshot.CPUUsage)

	if mode != models.ModeStatic && snapshot.AvailableMemory < browserMemoryNeed {
		utils.Warnf("可用内存不足(当前%dMB),浏览器渲染可能变慢或失败",
			snapshot.AvailableMemory/(1024*1024))
	}

	return snapshot, nil
}

// pressureLevel 内存压力等级
func pressureLevel(available uint64) string {
	availableMB := available / (1024 * 1024)
	switch {
	case availableMB < 200:
		return "emergency"
	case availableMB < 300:
		return "critical"
	case availableMB < 500:
		return "warning"
	default:
		return "normal"
	}
}

package parser

// ColumnGroup groups PresentMon columns by subsystem.
type ColumnGroup string

const (
	GroupMetadata      ColumnGroup = "metadata"
	GroupCPUTiming     ColumnGroup = "cpu_timing"
	GroupGPUTiming     ColumnGroup = "gpu_timing"
	GroupLatency       ColumnGroup = "latency"
	GroupGPUPower      ColumnGroup = "gpu_power"
	GroupGPUMemory     ColumnGroup = "gpu_memory"
	GroupGPUThrottling ColumnGroup = "gpu_throttling"
	GroupCPUMetrics    ColumnGroup = "cpu_metrics"
)

// ColumnType is the declared value type of a column.
type ColumnType string

const (
	TypeString ColumnType = "str"
	TypeFloat  ColumnType = "float"
	TypeInt    ColumnType = "int"
)

// ColumnDef documents one known PresentMon column.
type ColumnDef struct {
	Name        string
	Group       ColumnGroup
	Type        ColumnType
	Unit        string
	Description string
}

// Numeric reports whether values are parsed as numbers.
func (d ColumnDef) Numeric() bool { return d.Type != TypeString }

var columns = []ColumnDef{
	{"Application", GroupMetadata, TypeString, "", "Executable name of the profiled application"},
	{"ProcessID", GroupMetadata, TypeInt, "", "OS process ID"},
	{"SwapChainAddress", GroupMetadata, TypeString, "", "Memory address of the swap chain"},
	{"PresentRuntime", GroupMetadata, TypeString, "", "Graphics runtime (DXGI, D3D9, etc.)"},
	{"SyncInterval", GroupMetadata, TypeInt, "", "V-sync interval (0=off)"},
	{"PresentFlags", GroupMetadata, TypeInt, "", "Present API flags"},
	{"AllowsTearing", GroupMetadata, TypeInt, "", "Whether tearing is allowed (1=yes)"},
	{"PresentMode", GroupMetadata, TypeString, "", "Presentation mode (Hardware Flip, Composed, etc.)"},
	{"FrameType", GroupMetadata, TypeString, "", "Frame type (Application, Reprojected, etc.)"},

	{"CPUStartTime", GroupCPUTiming, TypeFloat, "s", "Timestamp of CPU frame start (seconds from capture start)"},
	{"FrameTime", GroupCPUTiming, TypeFloat, "ms", "Total time between consecutive frame starts"},
	{"CPUBusy", GroupCPUTiming, TypeFloat, "ms", "Time CPU spent actively working on the frame"},
	{"CPUWait", GroupCPUTiming, TypeFloat, "ms", "Time CPU spent waiting (for GPU, etc.)"},

	{"GPULatency", GroupGPUTiming, TypeFloat, "ms", "Latency from CPU submission to GPU start"},
	{"GPUTime", GroupGPUTiming, TypeFloat, "ms", "Total GPU time for the frame"},
	{"GPUBusy", GroupGPUTiming, TypeFloat, "ms", "Time GPU spent actively rendering"},
	{"GPUWait", GroupGPUTiming, TypeFloat, "ms", "Time GPU spent idle/waiting"},
	{"DisplayLatency", GroupGPUTiming, TypeFloat, "ms", "End-to-end latency from CPU start to display"},
	{"DisplayedTime", GroupGPUTiming, TypeFloat, "ms", "Time the frame was displayed on screen"},

	{"AnimationError", GroupLatency, TypeFloat, "ms", "Animation timing error"},
	{"AnimationTime", GroupLatency, TypeFloat, "ms", "Cumulative animation time"},
	{"AllInputToPhotonLatency", GroupLatency, TypeFloat, "ms", "Input-to-display latency (all inputs)"},
	{"ClickToPhotonLatency", GroupLatency, TypeFloat, "ms", "Mouse click to photon latency"},
	{"InstrumentedLatency", GroupLatency, TypeFloat, "ms", "Total instrumented latency"},

	{"GPUPower", GroupGPUPower, TypeFloat, "W", "GPU power draw"},
	{"GPUVoltage", GroupGPUPower, TypeFloat, "V", "GPU voltage"},
	{"GPUFrequency", GroupGPUPower, TypeFloat, "MHz", "GPU clock frequency"},
	{"GPUTemperature", GroupGPUPower, TypeFloat, "C", "GPU temperature"},
	{"GPUUtilization", GroupGPUPower, TypeFloat, "%", "Overall GPU utilization"},
	{"3D/ComputeUtilization", GroupGPUPower, TypeFloat, "%", "3D/compute engine utilization"},
	{"MediaUtilization", GroupGPUPower, TypeFloat, "%", "Media engine utilization"},
	{"GPUFanSpeed[0]", GroupGPUPower, TypeFloat, "RPM", "GPU fan 0 speed"},
	{"GPUFanSpeed[1]", GroupGPUPower, TypeFloat, "RPM", "GPU fan 1 speed"},
	{"GPUFanSpeed[2]", GroupGPUPower, TypeFloat, "RPM", "GPU fan 2 speed"},
	{"GPUFanSpeed[3]", GroupGPUPower, TypeFloat, "RPM", "GPU fan 3 speed"},

	{"GPUMemoryPower", GroupGPUMemory, TypeFloat, "W", "GPU memory power draw"},
	{"GPUMemoryVoltage", GroupGPUMemory, TypeFloat, "V", "GPU memory voltage"},
	{"GPUMemoryFrequency", GroupGPUMemory, TypeFloat, "MHz", "GPU memory clock frequency"},
	{"GPUMemoryEffectiveFrequency", GroupGPUMemory, TypeFloat, "MHz", "GPU memory effective frequency"},
	{"GPUMemoryTemperature", GroupGPUMemory, TypeFloat, "C", "GPU memory temperature"},
	{"GPUMemorySize", GroupGPUMemory, TypeFloat, "bytes", "Total GPU memory"},
	{"GPUMemorySizeUsed", GroupGPUMemory, TypeFloat, "bytes", "GPU memory in use"},
	{"GPUMemoryMaxBandwidth", GroupGPUMemory, TypeFloat, "bytes/s", "Maximum memory bandwidth"},
	{"GPUMemoryReadBandwidth", GroupGPUMemory, TypeFloat, "bytes/s", "Memory read bandwidth"},
	{"GPUMemoryWriteBandwidth", GroupGPUMemory, TypeFloat, "bytes/s", "Memory write bandwidth"},

	{"GPUPowerLimited", GroupGPUThrottling, TypeInt, "", "GPU is power-limited (1=yes)"},
	{"GPUTemperatureLimited", GroupGPUThrottling, TypeInt, "", "GPU is temperature-limited (1=yes)"},
	{"GPUCurrentLimited", GroupGPUThrottling, TypeInt, "", "GPU is current-limited (1=yes)"},
	{"GPUVoltageLimited", GroupGPUThrottling, TypeInt, "", "GPU is voltage-limited (1=yes)"},
	{"GPUUtilizationLimited", GroupGPUThrottling, TypeInt, "", "GPU is utilization-limited (1=yes)"},
	{"GPUMemoryPowerLimited", GroupGPUThrottling, TypeInt, "", "GPU memory is power-limited (1=yes)"},
	{"GPUMemoryTemperatureLimited", GroupGPUThrottling, TypeInt, "", "GPU memory is temperature-limited (1=yes)"},
	{"GPUMemoryCurrentLimited", GroupGPUThrottling, TypeInt, "", "GPU memory is current-limited (1=yes)"},
	{"GPUMemoryVoltageLimited", GroupGPUThrottling, TypeInt, "", "GPU memory is voltage-limited (1=yes)"},
	{"GPUMemoryUtilizationLimited", GroupGPUThrottling, TypeInt, "", "GPU memory is utilization-limited (1=yes)"},

	{"CPUUtilization", GroupCPUMetrics, TypeFloat, "%", "CPU utilization percentage"},
	{"CPUPower", GroupCPUMetrics, TypeFloat, "W", "CPU power draw"},
	{"CPUTemperature", GroupCPUMetrics, TypeFloat, "C", "CPU temperature"},
	{"CPUFrequency", GroupCPUMetrics, TypeFloat, "MHz", "CPU clock frequency"},
}

var columnIndex = func() map[string]ColumnDef {
	m := make(map[string]ColumnDef, len(columns))
	for _, c := range columns {
		m[c.Name] = c
	}
	return m
}()

// Lookup returns the definition of a known PresentMon column.
func Lookup(name string) (ColumnDef, bool) {
	d, ok := columnIndex[name]
	return d, ok
}

// Columns returns every known column definition in schema order.
func Columns() []ColumnDef {
	out := make([]ColumnDef, len(columns))
	copy(out, columns)
	return out
}

// RequiredColumns must be present for a capture to be analyzable.
var RequiredColumns = []string{"Application", "FrameTime", "CPUStartTime"}

// StandardColumns maps tool-independent names to PresentMon columns.
var StandardColumns = map[string]string{
	"timestamp_sec":               "CPUStartTime",
	"frame_time_ms":               "FrameTime",
	"cpu_busy_ms":                 "CPUBusy",
	"cpu_wait_ms":                 "CPUWait",
	"gpu_busy_ms":                 "GPUBusy",
	"gpu_wait_ms":                 "GPUWait",
	"gpu_time_ms":                 "GPUTime",
	"gpu_latency_ms":              "GPULatency",
	"display_latency_ms":          "DisplayLatency",
	"displayed_time_ms":           "DisplayedTime",
	"gpu_utilization_pct":         "GPUUtilization",
	"gpu_compute_utilization_pct": "3D/ComputeUtilization",
	"cpu_utilization_pct":         "CPUUtilization",
	"gpu_power_w":                 "GPUPower",
	"gpu_temp_c":                  "GPUTemperature",
	"gpu_freq_mhz":                "GPUFrequency",
	"cpu_freq_mhz":                "CPUFrequency",
	"gpu_mem_used_bytes":          "GPUMemorySizeUsed",
	"gpu_mem_total_bytes":         "GPUMemorySize",
}

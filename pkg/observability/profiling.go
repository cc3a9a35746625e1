package observability

import (
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"
)

// StartProfiling 接入Pyroscope持续剖析，未配置地址时跳过。
// 在main最前面调用，早于配置加载，因此只读环境变量。
func StartProfiling(serviceName string) {
	serverAddr := os.Getenv("PYROSCOPE_SERVER_ADDRESS")
	if serverAddr == "" {
		return
	}

	runtime.SetMutexProfileFraction(5)
	runtime.SetBlockProfileRate(5)

	_, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: serviceName,
		ServerAddress:   serverAddr,
		Logger:          nil,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
	})
	if err != nil {
		// 剖析不可用不影响服务启动
		os.Stderr.WriteString("pyroscope start failed: " + err.Error() + "\n")
	}
}

// Package profiling ships continuous CPU and memory profiles to Pyroscope.
package profiling

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultAppName        = "mentorhub-api"
	defaultUploadInterval = 15 * time.Second

	// sampling rates enabled only when mutex or block profiles are requested
	mutexProfileFraction = 5
	blockProfileRate     = 5
)

// sampleGroups maps O11Y_PROFILING_SAMPLE_TYPES names onto pyroscope types
var sampleGroups = map[string][]pyroscope.ProfileType{
	"cpu":           {pyroscope.ProfileCPU},
	"alloc_space":   {pyroscope.ProfileAllocSpace},
	"alloc_objects": {pyroscope.ProfileAllocObjects},
	"inuse_space":   {pyroscope.ProfileInuseSpace},
	"goroutines":    {pyroscope.ProfileGoroutines},
	"mutex":         {pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration},
	"block":         {pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration},
}

var defaultSamples = []string{"cpu", "alloc_space", "goroutines"}

// Labels identify this process in the profiling backend
type Labels struct {
	ServiceName string
	Namespace   string
	Version     string
	InstanceID  string
	Environment string
}

func (l Labels) tags() map[string]string {
	tags := map[string]string{}
	for k, v := range map[string]string{
		"service_name":    l.ServiceName,
		"namespace":       l.Namespace,
		"service_version": l.Version,
		"instance":        l.InstanceID,
		"environment":     l.Environment,
	} {
		if v != "" {
			tags[k] = v
		}
	}
	return tags
}

// InitProfiler starts continuous profiling when enabled and returns a stop func
func InitProfiler(cfg config.ProfilingConfig, labels Labels) (func(), error) {
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return func() {}, nil
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("profiling endpoint is required when profiling is enabled")
	}

	samples, err := parseSampleTypes(cfg.SampleTypes)
	if err != nil {
		return nil, err
	}

	appName := strings.TrimSpace(cfg.AppName)
	if appName == "" {
		appName = defaultAppName
	}
	interval := defaultUploadInterval
	if cfg.UploadIntervalSeconds > 0 {
		interval = time.Duration(cfg.UploadIntervalSeconds) * time.Second
	}

	restore := enableRuntimeSampling(samples)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   endpoint,
		UploadRate:      interval,
		Tags:            labels.tags(),
		ProfileTypes:    samples,
	})
	if err != nil {
		restore()
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}

	logger.Info("Continuous profiling started",
		zap.String("application_name", appName),
		zap.String("endpoint", endpoint),
		zap.Int("profile_types", len(samples)),
		zap.Duration("upload_interval", interval),
	)

	return func() {
		if stopErr := profiler.Stop(); stopErr != nil {
			logger.Error("Failed to stop profiler", zap.Error(stopErr))
		}
		restore()
	}, nil
}

// parseSampleTypes expands a comma separated list into de-duplicated
// profile types. An empty list selects the defaults.
func parseSampleTypes(value string) ([]pyroscope.ProfileType, error) {
	names := defaultSamples
	if strings.TrimSpace(value) != "" {
		names = strings.Split(value, ",")
	}

	var out []pyroscope.ProfileType
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		group, ok := sampleGroups[name]
		if !ok {
			return nil, fmt.Errorf("unsupported O11Y_PROFILING_SAMPLE_TYPES value: %q", name)
		}
		for _, t := range group {
			if !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	if len(out) == 0 {
		return parseSampleTypes("")
	}
	return out, nil
}

// enableRuntimeSampling turns on the runtime hooks that mutex and block
// profiles need and returns a func restoring the previous rates.
func enableRuntimeSampling(samples []pyroscope.ProfileType) func() {
	var restores []func()
	if slices.Contains(samples, pyroscope.ProfileMutexCount) {
		prev := runtime.SetMutexProfileFraction(mutexProfileFraction)
		restores = append(restores, func() { runtime.SetMutexProfileFraction(prev) })
	}
	if slices.Contains(samples, pyroscope.ProfileBlockCount) {
		runtime.SetBlockProfileRate(blockProfileRate)
		restores = append(restores, func() { runtime.SetBlockProfileRate(0) })
	}
	return func() {
		for _, r := range restores {
			r()
		}
	}
}

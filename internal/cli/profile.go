package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// profiler owns the optional CPU and heap profiles for one command run.
type profiler struct {
	stopCPU func() error
	memPath string
}

func startProfiling(cpuPath, memPath string) (*profiler, error) {
	p := &profiler{memPath: memPath}
	if cpuPath != "" {
		stop, err := startCPUProfile(cpuPath)
		if err != nil {
			return nil, err
		}
		p.stopCPU = stop
	}
	return p, nil
}

// stop ends the CPU profile and writes the heap profile.
func (p *profiler) stop() error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.stopCPU != nil {
		errs = append(errs, p.stopCPU())
		p.stopCPU = nil
	}
	if p.memPath != "" {
		errs = append(errs, writeMemProfile(p.memPath))
		p.memPath = ""
	}
	return errors.Join(errs...)
}

func startCPUProfile(path string) (func() error, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile %s: %w", path, err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return nil, fmt.Errorf("start cpu profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return nil, fmt.Errorf("start cpu profile %s: %w", path, err)
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			return fmt.Errorf("close cpu profile %s: %w", path, err)
		}
		return nil
	}, nil
}

func writeMemProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mem profile %s: %w", path, err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		if closeErr := f.Close(); closeErr != nil {
			return fmt.Errorf("write mem profile %s: %w (close failed: %w)", path, err, closeErr)
		}
		return fmt.Errorf("write mem profile %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mem profile %s: %w", path, err)
	}
	return nil
}

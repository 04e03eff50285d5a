package transcriber

import (
	"context"
	"time"

	execute "github.com/alexellis/go-execute/v2"
)

const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// GPUProber reports whether a CUDA-capable GPU is usable.
type GPUProber func(ctx context.Context) bool

// HasNvidiaGPU checks for an NVIDIA GPU by running nvidia-smi.
// Any failure, including a missing binary, counts as no GPU.
func HasNvidiaGPU(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	task := execute.ExecTask{
		Command: "nvidia-smi",
		Args:    []string{"-L"},
	}
	res, err := task.Execute(ctx)
	return err == nil && res.ExitCode == 0
}

// ResolveDevice turns "auto" into cuda or cpu. Any other value is returned as-is.
func ResolveDevice(ctx context.Context, requested string, probe GPUProber) string {
	if requested != DeviceAuto {
		return requested
	}
	if probe != nil && probe(ctx) {
		return DeviceCUDA
	}
	return DeviceCPU
}

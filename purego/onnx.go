package purego

import (
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"

	"radcap-go/radcap"
)

// InitONNXRuntime loads the onnxruntime shared library once per process.
// An empty libPath leaves the library's default search in place.
func InitONNXRuntime(libPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libPath != "" {
		ort.SetSharedLibraryPath(libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}
	fmt.Printf("✓ ONNX runtime initialized\n")
	return nil
}

// DestroyONNXRuntime releases the ONNX environment
func DestroyONNXRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// newSessionOptions builds session options for a device. CUDA falls back to
// CPU when the provider cannot be attached.
func newSessionOptions(device string) (*ort.SessionOptions, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}

	if err := options.SetIntraOpNumThreads(4); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to set threads: %w", err)
	}

	if device == radcap.DeviceCUDA {
		if err := appendCUDA(options); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: CUDA unavailable, using CPU: %v\n", err)
		}
	}

	return options, nil
}

func appendCUDA(options *ort.SessionOptions) error {
	cudaOptions, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOptions.Destroy()
	return options.AppendExecutionProviderCUDA(cudaOptions)
}

// modelIO returns the first input and output description of a model file
func modelIO(path string) (ort.InputOutputInfo, ort.InputOutputInfo, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return ort.InputOutputInfo{}, ort.InputOutputInfo{}, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return ort.InputOutputInfo{}, ort.InputOutputInfo{}, fmt.Errorf("%s: want 1 input and 1 output, got %d and %d", path, len(inputs), len(outputs))
	}
	return inputs[0], outputs[0], nil
}

// lastDim returns the trailing dimension of a shape, or -1 when dynamic
func lastDim(shape ort.Shape) int64 {
	if len(shape) == 0 {
		return -1
	}
	return shape[len(shape)-1]
}

// DescribeONNX returns one line per graph input and output
func DescribeONNX(path string) ([]string, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	lines := make([]string, 0, len(inputs)+len(outputs))
	for _, in := range inputs {
		lines = append(lines, fmt.Sprintf("input  %s %v", in.Name, in.Dimensions))
	}
	for _, out := range outputs {
		lines = append(lines, fmt.Sprintf("output %s %v", out.Name, out.Dimensions))
	}
	return lines, nil
}

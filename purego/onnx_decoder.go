package purego

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"radcap-go/radcap"
)

// ONNXDecoder runs an exported decoder.sample graph: [1,E] features in,
// [1,T] int64 greedy token ids out. Sampling happens inside the graph, so
// only greedy parameters are accepted.
type ONNXDecoder struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[int64]
}

// NewONNXDecoder creates the session once; Sample reuses its tensors
func NewONNXDecoder(modelPath string, config *radcap.Config) (*ONNXDecoder, error) {
	in, out, err := modelIO(modelPath)
	if err != nil {
		return nil, err
	}

	seqLen := int64(config.MaxSeqLength)
	if d := lastDim(out.Dimensions); d > 0 {
		seqLen = d
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(config.EmbedSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[int64](ort.NewShape(1, seqLen))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	options, err := newSessionOptions(config.Device)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{in.Name}, []string{out.Name},
		[]ort.Value{input}, []ort.Value{output}, options)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to create decoder session: %w", err)
	}

	fmt.Printf("✓ Loaded decoder %s (%d steps)\n", modelPath, seqLen)
	return &ONNXDecoder{
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// Sample runs the exported sampling graph
func (d *ONNXDecoder) Sample(ctx context.Context, features []float32, params *radcap.SamplingParams) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params != nil && !params.IsGreedy() {
		return nil, fmt.Errorf("the ONNX decoder only supports greedy sampling (temperature 0)")
	}

	dst := d.input.GetData()
	if len(features) != len(dst) {
		return nil, fmt.Errorf("%w: got %d features, decoder expects %d",
			radcap.ErrShapeMismatch, len(features), len(dst))
	}
	copy(dst, features)

	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	raw := d.output.GetData()
	n := len(raw)
	if params != nil && params.MaxTokens < n {
		n = params.MaxTokens
	}
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		ids[i] = int(raw[i])
	}
	return ids, nil
}

// Close cleans up resources
func (d *ONNXDecoder) Close() error {
	var firstErr error
	for _, destroy := range []func() error{d.session.Destroy, d.input.Destroy, d.output.Destroy} {
		if err := destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package purego

import (
	"context"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"radcap-go/radcap"
)

// ONNXEncoder runs an exported CNN encoder (backbone + linear + batch norm
// in eval mode). The graph maps [1,3,S,S] images to [1,E] features.
type ONNXEncoder struct {
	session   *ort.AdvancedSession
	input     *ort.Tensor[float32]
	output    *ort.Tensor[float32]
	embedSize int
}

// NewONNXEncoder creates the session once; Encode reuses its tensors
func NewONNXEncoder(modelPath string, config *radcap.Config) (*ONNXEncoder, error) {
	in, out, err := modelIO(modelPath)
	if err != nil {
		return nil, err
	}
	if d := lastDim(out.Dimensions); d > 0 && int(d) != config.EmbedSize {
		return nil, fmt.Errorf("%w: encoder output %q has width %d, embed_size is %d",
			radcap.ErrShapeMismatch, out.Name, d, config.EmbedSize)
	}

	size := int64(config.ImageSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(config.EmbedSize)))
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
		return nil, fmt.Errorf("failed to create encoder session: %w", err)
	}

	fmt.Printf("✓ Loaded encoder %s (%s -> %s[%d])\n", modelPath, in.Name, out.Name, config.EmbedSize)
	return &ONNXEncoder{
		session:   session,
		input:     input,
		output:    output,
		embedSize: config.EmbedSize,
	}, nil
}

// Encode runs the forward pass
func (e *ONNXEncoder) Encode(ctx context.Context, pixels []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := e.input.GetData()
	if len(pixels) != len(dst) {
		return nil, fmt.Errorf("%w: image tensor has %d values, encoder expects %d",
			radcap.ErrShapeMismatch, len(pixels), len(dst))
	}
	copy(dst, pixels)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	features := make([]float32, e.embedSize)
	copy(features, e.output.GetData())
	return features, nil
}

// EmbedSize returns the feature width
func (e *ONNXEncoder) EmbedSize() int {
	return e.embedSize
}

// Close cleans up resources
func (e *ONNXEncoder) Close() error {
	var firstErr error
	for _, destroy := range []func() error{e.session.Destroy, e.input.Destroy, e.output.Destroy} {
		if err := destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

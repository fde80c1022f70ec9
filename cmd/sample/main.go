package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"radcap-go/purego"
	"radcap-go/radcap"
)

// samplingFlags holds options that are not part of radcap.Config
type samplingFlags struct {
	image       string
	temperature float64
	topK        int
	topP        float64
	seed        int64
	cacheSize   int
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(args []string) error {
	config, sf, err := parseFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Load vocabulary wrapper
	vocab, err := purego.LoadVocabulary(config.VocabPath)
	if err != nil {
		return err
	}

	// Load test set description
	var entries []radcap.TestEntry
	if sf.image == "" {
		entries, err = radcap.LoadTestSet(config.TestJSON)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Loaded %d test entries from %s\n", len(entries), config.TestJSON)
	}

	// Build models
	defer purego.DestroyONNXRuntime()

	encoder, err := purego.NewEncoder(config)
	if err != nil {
		return fmt.Errorf("failed to load encoder: %w", err)
	}

	decoder, err := purego.NewDecoder(config, vocab)
	if err != nil {
		encoder.Close()
		return fmt.Errorf("failed to load decoder: %w", err)
	}

	transform, err := purego.NewImageTransform(config.Transform, config.ImageSize, config.ResizeSize)
	if err != nil {
		encoder.Close()
		decoder.Close()
		return err
	}

	samplingParams := radcap.NewSamplingParams(
		radcap.WithTemperature(sf.temperature),
		radcap.WithTopK(sf.topK),
		radcap.WithTopP(sf.topP),
		radcap.WithMaxTokens(config.MaxSeqLength),
		radcap.WithSeed(sf.seed),
	)

	captioner := radcap.NewCaptioner(config, transform, encoder, decoder, vocab,
		captionerOptions(samplingParams, sf.cacheSize)...)
	defer captioner.Close()

	viewer := purego.NewViewer()
	show := func(path string) {
		if !config.ShowImages {
			return
		}
		if err := viewer.Show(ctx, path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	if sf.image != "" {
		caption, err := captioner.Caption(ctx, sf.image)
		if err != nil {
			return err
		}
		fmt.Printf("AI cap: %s\n", renderCaption(caption, config.StripSpecials))
		show(sf.image)
		return nil
	}

	window := radcap.Window(entries, config.Start, config.End)
	fmt.Printf("Captioning entries [%d:%d] (%d images)\n\n", config.Start, config.End, len(window))

	return captioner.Run(ctx, entries, func(r radcap.Result) error {
		if err := printResult(os.Stdout, r, config.StripSpecials); err != nil {
			return err
		}
		show(r.ImagePath)
		return nil
	})
}

// captionerOptions installs a feature cache only when cacheSize is positive
func captionerOptions(sp *radcap.SamplingParams, cacheSize int) []radcap.CaptionerOption {
	opts := []radcap.CaptionerOption{radcap.WithSamplingParams(sp)}
	if cacheSize > 0 {
		opts = append(opts, radcap.WithFeatureCache(radcap.NewFeatureCache(cacheSize)))
	}
	return opts
}

// printResult writes the reference and generated captions followed by two
// blank lines.
func printResult(w io.Writer, r radcap.Result, strip bool) error {
	_, err := fmt.Fprintf(w, "Human cap: %s\nAI cap: %s\n\n\n", r.Reference, renderCaption(r.Caption, strip))
	return err
}

func renderCaption(c radcap.Caption, strip bool) string {
	if strip {
		return c.Text()
	}
	return c.String()
}

// parseFlags layers command line flags over an optional YAML config file
// over the built-in defaults.
func parseFlags(args []string) (*radcap.Config, *samplingFlags, error) {
	config := radcap.DefaultConfig()
	if path := configPath(args); path != "" {
		var err error
		config, err = radcap.LoadConfigFile(path)
		if err != nil {
			return nil, nil, err
		}
	}

	sf := &samplingFlags{}
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)

	fs.String("config", "", "YAML file with default flag values")
	fs.StringVar(&config.EncoderPath, "encoder_path", config.EncoderPath, "path for trained encoder (.onnx)")
	fs.StringVar(&config.DecoderPath, "decoder_path", config.DecoderPath, "path for trained decoder (.ckpt state dict or .onnx)")
	fs.StringVar(&config.TestJSON, "test_json", config.TestJSON, "path for json file with test imgs")
	fs.StringVar(&config.VocabPath, "vocab_path", config.VocabPath, "path for vocabulary wrapper (.pkl or .json)")

	// Model parameters (should be same as parameters used in training)
	fs.IntVar(&config.EmbedSize, "embed_size", config.EmbedSize, "dimension of word embedding vectors")
	fs.IntVar(&config.HiddenSize, "hidden_size", config.HiddenSize, "dimension of lstm hidden states")
	fs.IntVar(&config.NumLayers, "num_layers", config.NumLayers, "number of layers in lstm")
	fs.IntVar(&config.MaxSeqLength, "max_length", config.MaxSeqLength, "maximum number of sampled tokens")

	fs.StringVar(&config.Transform, "transform", config.Transform, "preprocessing: resize or center-crop")
	fs.IntVar(&config.Start, "start", config.Start, "first test entry to caption")
	fs.IntVar(&config.End, "end", config.End, "test entry to stop before")
	fs.StringVar(&config.Device, "device", config.Device, "cpu or cuda")
	fs.StringVar(&config.OnnxRuntime, "onnxruntime", envOr("ONNXRUNTIME_LIB", config.OnnxRuntime), "path of the onnxruntime shared library")
	fs.BoolVar(&config.ShowImages, "show", config.ShowImages, "open each image in the system viewer")
	fs.BoolVar(&config.StripSpecials, "strip", config.StripSpecials, "drop <start>/<end> from generated captions")
	fs.BoolVar(&config.Progress, "progress", config.Progress, "show a progress bar on stderr")

	fs.StringVar(&sf.image, "image", "", "caption a single image instead of the test set")
	fs.Float64Var(&sf.temperature, "temp", 0, "sampling temperature (0=greedy)")
	fs.IntVar(&sf.topK, "top_k", 0, "top-k sampling (0=disabled)")
	fs.Float64Var(&sf.topP, "top_p", 1.0, "nucleus sampling threshold")
	fs.Int64Var(&sf.seed, "seed", 1, "random seed for non-greedy sampling")
	fs.IntVar(&sf.cacheSize, "cache", 64, "number of encoder outputs to cache (0=off)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	if sf.temperature < 0 || sf.topK < 0 || sf.topP <= 0 || sf.topP > 1 {
		return nil, nil, fmt.Errorf("invalid sampling flags: temp=%v top_k=%d top_p=%v", sf.temperature, sf.topK, sf.topP)
	}

	return config, sf, nil
}

// configPath finds -config/--config ahead of full parsing so the file can
// supply defaults for the other flags.
func configPath(args []string) string {
	for i, a := range args {
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(name, "config=") {
			return strings.TrimPrefix(name, "config=")
		}
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

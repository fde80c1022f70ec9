package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"radcap-go/purego"
	"radcap-go/purego/tensor"
	"radcap-go/radcap"
)

func main() {
	config := radcap.DefaultConfig()
	flag.StringVar(&config.EncoderPath, "encoder_path", config.EncoderPath, "path for trained encoder (.onnx)")
	flag.StringVar(&config.DecoderPath, "decoder_path", config.DecoderPath, "path for trained decoder")
	flag.StringVar(&config.VocabPath, "vocab_path", config.VocabPath, "path for vocabulary wrapper")
	flag.IntVar(&config.EmbedSize, "embed_size", config.EmbedSize, "dimension of word embedding vectors")
	flag.IntVar(&config.HiddenSize, "hidden_size", config.HiddenSize, "dimension of lstm hidden states")
	flag.IntVar(&config.NumLayers, "num_layers", config.NumLayers, "number of layers in lstm")
	flag.StringVar(&config.OnnxRuntime, "onnxruntime", os.Getenv("ONNXRUNTIME_LIB"), "path of the onnxruntime shared library")
	exportVocab := flag.String("export_vocab", "", "write the vocabulary as JSON to this path")
	flag.Parse()

	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	vocab, err := purego.LoadVocabulary(config.VocabPath)
	if err != nil {
		log.Fatalf("Failed to load vocabulary: %v", err)
	}

	fmt.Println("=== Vocabulary ===")
	fmt.Printf("words=%d, <start>=%d, <end>=%d, <unk>=%d\n", vocab.Len(), vocab.StartID(), vocab.EndID(), vocab.ID(radcap.UnkToken))
	fmt.Printf("  First 10 words: ")
	for i := 0; i < 10 && i < vocab.Len(); i++ {
		w, _ := vocab.Word(i)
		fmt.Printf("%s ", w)
	}
	fmt.Println()

	if *exportVocab != "" {
		f, err := os.Create(*exportVocab)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *exportVocab, err)
		}
		if err := vocab.WriteJSON(f); err != nil {
			log.Fatalf("Failed to write vocabulary: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to write vocabulary: %v", err)
		}
		fmt.Printf("✓ Wrote %s\n", *exportVocab)
	}

	fmt.Println("\n=== Encoder ===")
	if err := purego.InitONNXRuntime(config.OnnxRuntime); err != nil {
		fmt.Printf("skipped: %v\n", err)
	} else {
		defer purego.DestroyONNXRuntime()
		describe(config.EncoderPath)
	}

	fmt.Println("\n=== Decoder ===")
	if purego.IsONNX(config.DecoderPath) {
		describe(config.DecoderPath)
		return
	}

	ckpt, err := tensor.LoadCheckpoint(config.DecoderPath)
	if err != nil {
		log.Fatalf("Failed to load decoder: %v", err)
	}
	for _, name := range ckpt.Names() {
		t, err := ckpt.Tensor(name)
		if err != nil {
			fmt.Printf("%-22s %v\n", name, err)
			continue
		}
		fmt.Printf("%-22s %-12v min=%.6f, max=%.6f, mean=%.6f\n",
			name, t.Shape, minFloat32(t.Data), maxFloat32(t.Data), meanFloat32(t.Data))
	}

	// Check that the hyperparameters line up with the weights
	fmt.Println("\n=== Shape Verification ===")
	fmt.Printf("embed_size=%d, hidden_size=%d, num_layers=%d, vocab=%d\n",
		config.EmbedSize, config.HiddenSize, config.NumLayers, vocab.Len())
	if _, err := purego.NewNativeDecoderFromWeights(ckpt, config, vocab); err != nil {
		log.Fatalf("✗ %v", err)
	}
	fmt.Println("✓ Decoder weights match the flags")
}

func describe(path string) {
	lines, err := purego.DescribeONNX(path)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for _, l := range lines {
		fmt.Println(l)
	}
}

func minFloat32(data []float32) float32 {
	m := float32(math.Inf(1))
	for _, v := range data {
		if v < m {
			m = v
		}
	}
	return m
}

func maxFloat32(data []float32) float32 {
	m := float32(math.Inf(-1))
	for _, v := range data {
		if v > m {
			m = v
		}
	}
	return m
}

func meanFloat32(data []float32) float32 {
	if len(data) == 0 {
		return 0
	}
	sum := float64(0)
	for _, v := range data {
		sum += float64(v)
	}
	return float32(sum / float64(len(data)))
}

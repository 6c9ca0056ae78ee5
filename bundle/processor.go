package bundle

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	// Decoders registered for image.Decode
	_ "image/gif"

	"github.com/HugoSmits86/nativewebp"
	"github.com/crytic/manganis/assets"
	"github.com/gen2brain/avif"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	minjson "github.com/tdewolff/minify/v2/json"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Processor turns the contents of a source file into the contents of its output file.
type Processor interface {
	Process(input []byte, options assets.Options) ([]byte, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(input []byte, options assets.Options) ([]byte, error)

// Process calls f.
func (f ProcessorFunc) Process(input []byte, options assets.Options) ([]byte, error) {
	return f(input, options)
}

// DefaultProcessors returns the processor of every options kind.
func DefaultProcessors() map[assets.OptionsKind]Processor {
	return map[assets.OptionsKind]Processor{
		assets.KindImage: ProcessorFunc(processImage),
		assets.KindCss:   ProcessorFunc(processCss),
		assets.KindJson:  ProcessorFunc(processJson),
		assets.KindFont:  ProcessorFunc(copyVerbatim),
		assets.KindVideo: ProcessorFunc(copyVerbatim),
		assets.KindOther: ProcessorFunc(copyVerbatim),
	}
}

// minifier is shared by the css and json processors. It is safe for concurrent use once configured.
var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/json", minjson.Minify)
	return m
}

// MinifyCss minifies a stylesheet.
func MinifyCss(input []byte) ([]byte, error) {
	return minifier.Bytes("text/css", input)
}

func copyVerbatim(input []byte, _ assets.Options) ([]byte, error) {
	return input, nil
}

func processCss(input []byte, options assets.Options) ([]byte, error) {
	if options.Css == nil || !options.Css.Minify {
		return input, nil
	}
	output, err := MinifyCss(input)
	if err != nil {
		return nil, fmt.Errorf("failed to minify css: %w", err)
	}
	return output, nil
}

func processJson(input []byte, _ assets.Options) ([]byte, error) {
	output, err := minifier.Bytes("application/json", input)
	if err != nil {
		return nil, fmt.Errorf("failed to minify json: %w", err)
	}
	return output, nil
}

// processImage resizes and re-encodes images, so that the bytes written always match the format the options imply.
func processImage(input []byte, options assets.Options) ([]byte, error) {
	opts := options.Image
	if opts == nil {
		return nil, fmt.Errorf("image options are missing")
	}

	sourceMime := assets.DetectMime("", input)
	targetMime := assets.MimeForExtension(string(opts.Format))

	// Nothing to do for a source that already has the wanted shape
	if opts.Size == nil && !opts.Compress && sourceMime == targetMime {
		return input, nil
	}

	img, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if opts.Size != nil {
		img = resize(img, int(opts.Size.Width), int(opts.Size.Height))
	}

	var buf bytes.Buffer
	switch opts.Format {
	case assets.ImagePng:
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if opts.Compress {
			encoder.CompressionLevel = png.BestCompression
		}
		err = encoder.Encode(&buf, img)
	case assets.ImageJpg:
		quality := 95
		if opts.Compress {
			quality = 80
		}
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case assets.ImageWebp:
		// Lossless VP8L, the only mode of the encoder
		err = nativewebp.Encode(&buf, img, nil)
	case assets.ImageAvif:
		quality := 80
		if opts.Compress {
			quality = avif.DefaultQuality
		}
		err = avif.Encode(&buf, img, avif.Options{
			Quality:           quality,
			QualityAlpha:      quality,
			Speed:             avif.DefaultSpeed,
			ChromaSubsampling: image.YCbCrSubsampleRatio420,
		})
	default:
		return nil, fmt.Errorf("unsupported image format '%s'", opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s image: %w", opts.Format, err)
	}
	return buf.Bytes(), nil
}

// resize scales img to exactly width by height.
func resize(img image.Image, width int, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

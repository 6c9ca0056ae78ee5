package assets

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OptionsKind is the processing family of a file asset.
type OptionsKind string

const (
	KindImage OptionsKind = "image"
	KindVideo OptionsKind = "video"
	KindFont  OptionsKind = "font"
	KindCss   OptionsKind = "css"
	KindJson  OptionsKind = "json"
	KindOther OptionsKind = "other"
)

// AllOptionsKinds lists every kind. Processors are expected to cover each one.
var AllOptionsKinds = []OptionsKind{KindImage, KindVideo, KindFont, KindCss, KindJson, KindOther}

// ImageFormat is the output encoding of an image asset.
type ImageFormat string

const (
	ImagePng  ImageFormat = "png"
	ImageJpg  ImageFormat = "jpg"
	ImageAvif ImageFormat = "avif"
	ImageWebp ImageFormat = "webp"
)

// VideoFormat is the output encoding of a video asset.
type VideoFormat string

const (
	VideoMp4  VideoFormat = "mp4"
	VideoWebm VideoFormat = "webm"
	VideoGif  VideoFormat = "gif"
)

// FontFormat is the output encoding of a font asset.
type FontFormat string

const (
	FontTtf   FontFormat = "ttf"
	FontWoff  FontFormat = "woff"
	FontWoff2 FontFormat = "woff2"
)

// ImageSize is a fixed output size in pixels.
type ImageSize struct {
	Width  uint32 `json:"width" toml:"width"`
	Height uint32 `json:"height" toml:"height"`
}

// ImageOptions describes how an image is processed.
type ImageOptions struct {
	Format   ImageFormat `json:"format" toml:"format"`
	Size     *ImageSize  `json:"size,omitempty" toml:"size,omitempty"`
	Compress bool        `json:"compress" toml:"compress"`
	Preload  bool        `json:"preload" toml:"preload"`
}

// VideoOptions describes how a video is processed.
type VideoOptions struct {
	Format   VideoFormat `json:"format" toml:"format"`
	Compress bool        `json:"compress" toml:"compress"`
	Preload  bool        `json:"preload" toml:"preload"`
}

// FontOptions describes how a font is processed.
type FontOptions struct {
	Format FontFormat `json:"format" toml:"format"`
}

// CssOptions describes how a stylesheet is processed.
type CssOptions struct {
	Minify  bool `json:"minify" toml:"minify"`
	Preload bool `json:"preload" toml:"preload"`
}

// JsonOptions describes how a JSON document is processed.
type JsonOptions struct {
	Preload bool `json:"preload" toml:"preload"`
}

// OtherOptions describes a file copied verbatim.
type OtherOptions struct {
	Extension string `json:"extension" toml:"extension"`
}

// Options is a closed sum over the option kinds. Kind selects which of the payload fields is set; every other payload
// field is nil.
type Options struct {
	Kind  OptionsKind   `json:"kind" toml:"kind"`
	Image *ImageOptions `json:"image,omitempty" toml:"image,omitempty"`
	Video *VideoOptions `json:"video,omitempty" toml:"video,omitempty"`
	Font  *FontOptions  `json:"font,omitempty" toml:"font,omitempty"`
	Css   *CssOptions   `json:"css,omitempty" toml:"css,omitempty"`
	Json  *JsonOptions  `json:"json,omitempty" toml:"json,omitempty"`
	Other *OtherOptions `json:"other,omitempty" toml:"other,omitempty"`
}

// NewImageOptions wraps image options.
func NewImageOptions(o ImageOptions) Options {
	return Options{Kind: KindImage, Image: &o}
}

// NewVideoOptions wraps video options.
func NewVideoOptions(o VideoOptions) Options {
	return Options{Kind: KindVideo, Video: &o}
}

// NewFontOptions wraps font options.
func NewFontOptions(o FontOptions) Options {
	return Options{Kind: KindFont, Font: &o}
}

// NewCssOptions wraps stylesheet options.
func NewCssOptions(o CssOptions) Options {
	return Options{Kind: KindCss, Css: &o}
}

// NewJsonOptions wraps JSON options.
func NewJsonOptions(o JsonOptions) Options {
	return Options{Kind: KindJson, Json: &o}
}

// NewOtherOptions returns options for a verbatim copy with the given extension.
func NewOtherOptions(extension string) Options {
	return Options{Kind: KindOther, Other: &OtherOptions{Extension: normalizeExtension(extension)}}
}

// DefaultOptionsForExtension returns the options used when a declaration does not specify any.
func DefaultOptionsForExtension(extension string) Options {
	switch ext := normalizeExtension(extension); ext {
	case "png":
		return NewImageOptions(ImageOptions{Format: ImagePng, Compress: true})
	case "jpg", "jpeg":
		return NewImageOptions(ImageOptions{Format: ImageJpg, Compress: true})
	case "avif":
		return NewImageOptions(ImageOptions{Format: ImageAvif, Compress: true})
	case "webp":
		return NewImageOptions(ImageOptions{Format: ImageWebp, Compress: true})
	case "mp4":
		return NewVideoOptions(VideoOptions{Format: VideoMp4})
	case "webm":
		return NewVideoOptions(VideoOptions{Format: VideoWebm})
	case "gif":
		return NewVideoOptions(VideoOptions{Format: VideoGif})
	case "ttf":
		return NewFontOptions(FontOptions{Format: FontTtf})
	case "woff":
		return NewFontOptions(FontOptions{Format: FontWoff})
	case "woff2":
		return NewFontOptions(FontOptions{Format: FontWoff2})
	case "css":
		return NewCssOptions(CssOptions{Minify: true})
	case "json":
		return NewJsonOptions(JsonOptions{})
	default:
		return NewOtherOptions(ext)
	}
}

// Validate checks that exactly the payload selected by Kind is present and that its format is known.
func (o Options) Validate() error {
	payloads := 0
	for _, set := range []bool{o.Image != nil, o.Video != nil, o.Font != nil, o.Css != nil, o.Json != nil, o.Other != nil} {
		if set {
			payloads++
		}
	}
	if payloads != 1 {
		return fmt.Errorf("asset options of kind '%s' must carry exactly one payload, found %d", o.Kind, payloads)
	}

	switch o.Kind {
	case KindImage:
		if o.Image == nil {
			return fmt.Errorf("image options are missing their payload")
		}
		switch o.Image.Format {
		case ImagePng, ImageJpg, ImageAvif, ImageWebp:
		default:
			return fmt.Errorf("unsupported image format '%s'", o.Image.Format)
		}
		if o.Image.Size != nil && (o.Image.Size.Width == 0 || o.Image.Size.Height == 0) {
			return fmt.Errorf("image size must be non-zero, got %dx%d", o.Image.Size.Width, o.Image.Size.Height)
		}
	case KindVideo:
		if o.Video == nil {
			return fmt.Errorf("video options are missing their payload")
		}
		switch o.Video.Format {
		case VideoMp4, VideoWebm, VideoGif:
		default:
			return fmt.Errorf("unsupported video format '%s'", o.Video.Format)
		}
	case KindFont:
		if o.Font == nil {
			return fmt.Errorf("font options are missing their payload")
		}
		switch o.Font.Format {
		case FontTtf, FontWoff, FontWoff2:
		default:
			return fmt.Errorf("unsupported font format '%s'", o.Font.Format)
		}
	case KindCss:
		if o.Css == nil {
			return fmt.Errorf("css options are missing their payload")
		}
	case KindJson:
		if o.Json == nil {
			return fmt.Errorf("json options are missing their payload")
		}
	case KindOther:
		if o.Other == nil {
			return fmt.Errorf("options are missing their payload")
		}
	default:
		return fmt.Errorf("unknown asset options kind '%s'", o.Kind)
	}
	return nil
}

// Extension returns the file extension implied by the options, without a leading dot. It is empty only for verbatim
// copies of files that have no extension.
func (o Options) Extension() string {
	switch o.Kind {
	case KindImage:
		if o.Image != nil {
			return string(o.Image.Format)
		}
	case KindVideo:
		if o.Video != nil {
			return string(o.Video.Format)
		}
	case KindFont:
		if o.Font != nil {
			return string(o.Font.Format)
		}
	case KindCss:
		return "css"
	case KindJson:
		return "json"
	case KindOther:
		if o.Other != nil {
			return o.Other.Extension
		}
	}
	return ""
}

// Preload reports whether the asset should be preloaded by the page that references it.
func (o Options) Preload() bool {
	switch {
	case o.Image != nil:
		return o.Image.Preload
	case o.Video != nil:
		return o.Video.Preload
	case o.Css != nil:
		return o.Css.Preload
	case o.Json != nil:
		return o.Json.Preload
	}
	return false
}

// Canonical returns a stable textual encoding of the options. Two options values are equal exactly when their
// canonical encodings are equal.
func (o Options) Canonical() string {
	// Struct fields marshal in declaration order, so the encoding is deterministic
	data, err := json.Marshal(o)
	if err != nil {
		return string(o.Kind)
	}
	return string(data)
}

// Equal reports whether two options values describe the same processing.
func (o Options) Equal(other Options) bool {
	return o.Canonical() == other.Canonical()
}

// String returns a short human-readable description of the options.
func (o Options) String() string {
	ext := o.Extension()
	if ext == "" || ext == string(o.Kind) {
		return string(o.Kind)
	}
	return string(o.Kind) + "(" + ext + ")"
}

// normalizeExtension lowercases an extension and strips leading dots.
func normalizeExtension(extension string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(extension), "."))
}

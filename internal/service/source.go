package service

// ImageSource identifies the image content of a request: either a URL that
// serves as both content reference and record identity, or raw bytes with an
// optional explicit path.
type ImageSource struct {
	url          string
	data         []byte
	explicitPath string
	raw          bool
}

// ByReference builds a source from a URL. The URL doubles as the record path
// unless an explicit path is also supplied.
func ByReference(url string) ImageSource {
	return ImageSource{url: url}
}

// ByValue builds a source from raw image bytes. explicitPath may be empty,
// in which case the source cannot be added to the index.
func ByValue(data []byte, explicitPath string) ImageSource {
	return ImageSource{data: data, explicitPath: explicitPath, raw: true}
}

// WithPath returns a copy of s carrying the given explicit path.
func (s ImageSource) WithPath(path string) ImageSource {
	s.explicitPath = path
	return s
}

// IsRaw reports whether the source carries raw bytes rather than a URL.
func (s ImageSource) IsRaw() bool {
	return s.raw
}

// Path returns the record identity of the source: the explicit path when
// present, otherwise the URL. Empty when a raw source has no explicit path.
func (s ImageSource) Path() string {
	if s.explicitPath != "" {
		return s.explicitPath
	}
	return s.url
}

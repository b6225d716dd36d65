package asset

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrRemoteWrite = errors.New("resource: remote resources are read-only")

// The Resource type wraps a streamable file or remote resource.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	if !r.IsRemote() {
		return r.url.Path
	}
	return r.url.String()
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource data stream. Paths with an http/https scheme are fetched
// using the net/http package; everything else is treated as a local file.
//
// The caller must close the returned resource.
func NewResource(pathToResource string) (*Resource, error) {
	url, err := parse(pathToResource)
	if err != nil {
		return nil, err
	}

	var reader io.ReadCloser
	switch url.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(url.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(url.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", url.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", url.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", url.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        url,
	}, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	u, err := parse(name)
	if err != nil {
		u = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        u,
	}
}

// Create (or truncate) a local file for writing.
func Create(pathToResource string) (io.WriteCloser, error) {
	url, err := parse(pathToResource)
	if err != nil {
		return nil, err
	}
	if url.Scheme != "" {
		return nil, fmt.Errorf("%w: %s", ErrRemoteWrite, pathToResource)
	}
	return os.Create(filepath.Clean(url.Path))
}

// Map a resource path to a local filename. Local paths are returned unchanged
// while remote paths are mapped to their base name in the working directory.
func LocalName(pathToResource string) string {
	url, err := parse(pathToResource)
	if err != nil || url.Scheme == "" {
		return pathToResource
	}
	return path.Base(url.Path)
}

// Only paths that contain a scheme separator are parsed as URLs; anything else
// is kept verbatim as a local path.
func parse(pathToResource string) (*url.URL, error) {
	if !strings.Contains(pathToResource, "://") {
		return &url.URL{Path: pathToResource}, nil
	}

	url, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, fmt.Errorf("resource: invalid path '%s': %w", pathToResource, err)
	}
	return url, nil
}

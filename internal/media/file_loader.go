package media

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

const maxFileSize = 100 << 20

// File is a media reference resolved to its bytes.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

type Loader interface {
	Load(ctx context.Context, ref string) (File, error)
}

// FileLoader reads site files from disk and everything else over HTTP.
//
//	/files/a.png          -> <sitePath>/public/files/a.png
//	/private/files/b.pdf  -> <sitePath>/private/files/b.pdf
//	https://host/c.jpg    -> GET
type FileLoader struct {
	client   *http.Client
	sitePath string
}

func NewFileLoader(client *http.Client, sitePath string) *FileLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &FileLoader{client: client, sitePath: sitePath}
}

func (l *FileLoader) Load(ctx context.Context, ref string) (File, error) {
	var (
		data []byte
		name string
		err  error
	)
	switch {
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		data, name, err = l.fetch(ctx, ref)
	case strings.HasPrefix(ref, "/private/files/"):
		data, name, err = l.readSite(ref)
	case strings.HasPrefix(ref, "/files/"):
		data, name, err = l.readSite("/public" + ref)
	default:
		return File{}, errors.Errorf("unsupported media reference %q", ref)
	}
	if err != nil {
		return File{}, err
	}
	if len(data) == 0 {
		return File{}, errors.Errorf("media reference %q is empty", ref)
	}
	return File{Name: name, MimeType: DetectMime(data), Data: data}, nil
}

func (l *FileLoader) readSite(rel string) ([]byte, string, error) {
	clean := path.Clean(rel)
	if !strings.HasPrefix(clean, "/public/files/") && !strings.HasPrefix(clean, "/private/files/") {
		return nil, "", errors.Errorf("invalid site path %q", rel)
	}
	full := filepath.Join(l.sitePath, filepath.FromSlash(clean))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, "", errors.Wrapf(err, "read %s", rel)
	}
	return data, path.Base(clean), nil
}

func (l *FileLoader) fetch(ctx context.Context, raw string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "build download request")
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf(err, "download %s", raw)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, "", errors.Errorf("download %s: status %d", raw, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
	if err != nil {
		return nil, "", errors.Wrapf(err, "read %s", raw)
	}
	name := "file"
	if u, err := url.Parse(raw); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." {
			name = base
		}
	}
	return data, name, nil
}

// DetectMime sniffs the content type, without parameters such as charset.
func DetectMime(data []byte) string {
	m := mimetype.Detect(data).String()
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return m
}

package payload

import "strings"

// Source is the bound document the engine reads values from.
type Source interface {
	// Get walks a dotted path. ok is false when any segment is absent.
	Get(path string) (value any, ok bool)
}

// FormattedSource is implemented by documents that can render a field for
// display, e.g. localised dates or currency.
type FormattedSource interface {
	Source
	GetFormatted(field string) (string, bool)
}

// ShareKeySource is implemented by documents that can mint an access key for
// their private attachments.
type ShareKeySource interface {
	ShareKey() (string, error)
}

// MapSource adapts a plain map, typically decoded JSON.
type MapSource map[string]any

func (m MapSource) Get(path string) (any, bool) {
	if m == nil {
		return nil, false
	}
	var cur any = map[string]any(m)
	for _, seg := range strings.Split(path, ".") {
		next, ok := child(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func child(v any, key string) (any, bool) {
	switch node := v.(type) {
	case map[string]any:
		val, ok := node[key]
		return val, ok
	case MapSource:
		val, ok := node[key]
		return val, ok
	case map[string]string:
		val, ok := node[key]
		return val, ok
	}
	return nil, false
}

// Document is a MapSource with display formatting and a share key, the
// adapter used when a caller posts a document snapshot.
type Document struct {
	Fields    MapSource
	Formatted map[string]string
	Key       string
}

func (d Document) Get(path string) (any, bool) {
	return d.Fields.Get(path)
}

func (d Document) GetFormatted(field string) (string, bool) {
	v, ok := d.Formatted[field]
	return v, ok
}

func (d Document) ShareKey() (string, error) {
	return d.Key, nil
}

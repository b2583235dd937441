package decoder

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ocmweb/mercury-sync/internal/domain"
)

// Package decoder turns raw Mercury XML payloads into normalized RemoteItems.

// Legacy content-type aliases rewritten before any type-specific logic runs.
var typeAliases = map[string]string{
	"hgTechInTheNews": "external_news",
}

// DecodeError reports a malformed payload or a structurally incomplete item.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
	}
	return "decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeItem decodes a single-item payload into one RemoteItem.
func DecodeItem(raw []byte) (*domain.RemoteItem, error) {
	tree, err := ParseTree(raw)
	if err != nil {
		return nil, err
	}
	return ItemFromTree(tree)
}

// DecodeFeed decodes a feed payload into the sequence of items it carries.
// Individual malformed entries are returned alongside the good ones via errs;
// they never abort the batch.
func DecodeFeed(raw []byte) (items []*domain.RemoteItem, errs []error, err error) {
	tree, err := ParseTree(raw)
	if err != nil {
		return nil, nil, err
	}

	entries := tree.List("node")
	if len(entries) == 0 {
		entries = tree.List("item")
	}
	if len(entries) == 0 {
		return nil, nil, &DecodeError{Reason: "feed payload contains no items"}
	}

	for _, entry := range entries {
		m, ok := entry.(domain.Map)
		if !ok {
			errs = append(errs, &DecodeError{Reason: "feed entry is not a record"})
			continue
		}
		item, ierr := ItemFromTree(m)
		if ierr != nil {
			errs = append(errs, ierr)
			continue
		}
		items = append(items, item)
	}
	return items, errs, nil
}

// ItemFromTree builds a RemoteItem from a normalized attribute tree.
func ItemFromTree(m domain.Map) (*domain.RemoteItem, error) {
	typ := strings.TrimSpace(m.String("type"))
	if typ == "" {
		return nil, &DecodeError{Reason: "item is missing required field \"type\""}
	}
	if alias, ok := typeAliases[typ]; ok {
		typ = alias
	}

	id := strings.TrimSpace(m.String("nid"))
	if id == "" {
		return nil, &DecodeError{Reason: "item is missing required field \"nid\""}
	}

	item := &domain.RemoteItem{
		RemoteID: id,
		Type:     typ,
		Title:    m.String("title"),
		Body:     m.String("body"),
		Changed:  m.String("changed"),
		Attrs:    m,
	}

	if typ == "event" {
		times, err := eventTimes(m)
		if err != nil {
			return nil, err
		}
		item.Times = times
	}

	return item, nil
}

// ParseTree parses XML into a value tree and resolves every base64-or-plain
// wrapper it contains.
func ParseTree(raw []byte) (domain.Map, error) {
	root, err := parseXML(raw)
	if err != nil {
		return nil, &DecodeError{Reason: "malformed XML", Err: err}
	}
	m, ok := Normalize(root).(domain.Map)
	if !ok {
		return nil, &DecodeError{Reason: "payload root is not a record"}
	}
	return m, nil
}

// Normalize recursively replaces every {format, value} wrapper with the plain
// value, base64-decoding where the wrapper says so. The walk is idempotent and
// descends into every nested list and map.
func Normalize(v domain.Value) domain.Value {
	switch t := v.(type) {
	case domain.Map:
		format, hasFormat := t["format"]
		value, hasValue := t["value"]
		if hasFormat && hasValue {
			if f, ok := format.(domain.Scalar); ok && string(f) == "base64" {
				if s, ok := value.(domain.Scalar); ok {
					decoded, err := base64.StdEncoding.DecodeString(string(s))
					if err == nil {
						return domain.Scalar(decoded)
					}
				}
			}
			return Normalize(value)
		}
		out := make(domain.Map, len(t))
		for k, sub := range t {
			out[k] = Normalize(sub)
		}
		return out
	case domain.List:
		out := make(domain.List, len(t))
		for i, sub := range t {
			out[i] = Normalize(sub)
		}
		return out
	default:
		return v
	}
}

// parseXML walks the token stream into a value tree: elements with children
// become maps, repeated sibling names fold into lists, leaves become scalars.
func parseXML(raw []byte) (domain.Value, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("no root element")
			}
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return parseElement(dec, start)
		}
	}
}

func parseElement(dec *xml.Decoder, start xml.StartElement) (domain.Value, error) {
	var text strings.Builder
	children := domain.Map{}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}
			name := t.Name.Local
			switch existing := children[name].(type) {
			case nil:
				children[name] = child
			case domain.List:
				children[name] = append(existing, child)
			default:
				children[name] = domain.List{existing, child}
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(children) == 0 {
				return domain.Scalar(strings.TrimSpace(text.String())), nil
			}
			return children, nil
		}
	}
}

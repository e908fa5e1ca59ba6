package persist

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Codec converts cached values to and from record bytes.
type Codec interface {
	Name() string
	// Extension is the file suffix used by the file store, including the dot.
	Extension() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	// XMLCodec writes tab-indented XML without a declaration line.
	XMLCodec Codec = xmlCodec{}
	// YAMLCodec writes YAML documents.
	YAMLCodec Codec = yamlCodec{}
	// TOMLCodec writes TOML documents.
	TOMLCodec Codec = tomlCodec{}
)

// CodecByName resolves "xml", "yaml" (or "yml") and "toml".
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "xml":
		return XMLCodec, nil
	case "yaml", "yml":
		return YAMLCodec, nil
	case "toml":
		return TOMLCodec, nil
	default:
		return nil, fmt.Errorf("persist: unknown codec %q", name)
	}
}

type xmlCodec struct{}

func (xmlCodec) Name() string      { return "xml" }
func (xmlCodec) Extension() string { return ".xml" }

func (xmlCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "\t")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Unmarshal requires the root element to be the one Marshal would write for v
// and rejects anything but whitespace and comments after it.
func (xmlCodec) Unmarshal(data []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root, err := xmlRoot(dec)
	if err != nil {
		return err
	}
	if want := xmlRootName(v); want != "" && root.Name.Local != want {
		return fmt.Errorf("xml: root element <%s>, expected <%s>", root.Name.Local, want)
	}
	if err := dec.DecodeElement(v, &root); err != nil {
		return err
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.Comment:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return errors.New("xml: content after root element")
			}
		default:
			return errors.New("xml: content after root element")
		}
	}
}

func xmlRoot(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return xml.StartElement{}, errors.New("xml: no root element")
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return xml.StartElement{}, errors.New("xml: content before root element")
			}
		}
	}
}

var xmlNameType = reflect.TypeFor[xml.Name]()

// xmlRootName is the element name encoding/xml gives a zero value of v's type:
// the XMLName tag when present, otherwise the type name.
func xmlRootName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName("XMLName"); ok && f.Type == xmlNameType {
			tag, _, _ := strings.Cut(f.Tag.Get("xml"), ",")
			if i := strings.LastIndex(tag, " "); i >= 0 {
				tag = tag[i+1:]
			}
			if tag != "" {
				return tag
			}
		}
	}
	return t.Name()
}

type yamlCodec struct{}

func (yamlCodec) Name() string      { return "yaml" }
func (yamlCodec) Extension() string { return ".yaml" }

func (yamlCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

func (yamlCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

type tomlCodec struct{}

func (tomlCodec) Name() string      { return "toml" }
func (tomlCodec) Extension() string { return ".toml" }

func (tomlCodec) Marshal(v any) ([]byte, error) { return toml.Marshal(v) }

func (tomlCodec) Unmarshal(data []byte, v any) error { return toml.Unmarshal(data, v) }

// Package format decodes serialized text into structured values. Every
// decoder keeps the document's own key order where the underlying parser
// exposes it, so the same input always yields the same table columns.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/span"
	"github.com/rillshell/rill/internal/value"
)

// FromJSON decodes a JSON document. Object keys keep document order, and
// integral numbers decode as ints rather than floats.
func FromJSON(data []byte, sp span.Span) (value.Value, *diag.Error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := jsonValue(dec, sp)
	if err != nil {
		return nil, diag.NewCantConvert("structured data", "JSON", sp)
	}
	if _, trailing := dec.Token(); trailing != io.EOF {
		return nil, diag.NewCantConvert("structured data", "JSON", sp)
	}
	return v, nil
}

func jsonValue(dec *json.Decoder, sp span.Span) (value.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return jsonFromToken(dec, tok, sp)
}

func jsonFromToken(dec *json.Decoder, tok json.Token, sp span.Span) (value.Value, error) {
	switch t := tok.(type) {
	case nil:
		return &value.Nothing{Sp: sp}, nil
	case bool:
		return &value.Bool{Value: t, Sp: sp}, nil
	case string:
		return &value.String{Value: t, Sp: sp}, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return &value.Int{Value: i, Sp: sp}, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return &value.Float{Value: f, Sp: sp}, nil
	case json.Delim:
		switch t {
		case '[':
			var items []value.Value
			for dec.More() {
				v, err := jsonValue(dec, sp)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return &value.List{Items: items, Sp: sp}, nil
		case '{':
			var cols []string
			var vals []value.Value
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string")
				}
				v, err := jsonValue(dec, sp)
				if err != nil {
					return nil, err
				}
				cols = append(cols, key)
				vals = append(vals, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return &value.Record{Cols: cols, Vals: vals, Sp: sp}, nil
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

// FromYAML decodes a YAML document via the node API, which keeps mapping
// keys in document order.
func FromYAML(data []byte, sp span.Span) (value.Value, *diag.Error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, diag.NewCantConvert("structured data", "YAML", sp)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return &value.Nothing{Sp: sp}, nil
	}
	v, err := yamlValue(root.Content[0], sp)
	if err != nil {
		return nil, diag.NewCantConvert("structured data", "YAML", sp)
	}
	return v, nil
}

func yamlValue(n *yaml.Node, sp span.Span) (value.Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return yamlScalar(n, sp)
	case yaml.SequenceNode:
		items := make([]value.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c, sp)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return &value.List{Items: items, Sp: sp}, nil
	case yaml.MappingNode:
		cols := make([]string, 0, len(n.Content)/2)
		vals := make([]value.Value, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := yamlValue(n.Content[i+1], sp)
			if err != nil {
				return nil, err
			}
			cols = append(cols, n.Content[i].Value)
			vals = append(vals, v)
		}
		return &value.Record{Cols: cols, Vals: vals, Sp: sp}, nil
	case yaml.AliasNode:
		return yamlValue(n.Alias, sp)
	}
	return nil, fmt.Errorf("unsupported YAML node kind %d", n.Kind)
}

func yamlScalar(n *yaml.Node, sp span.Span) (value.Value, error) {
	switch n.Tag {
	case "!!null":
		return &value.Nothing{Sp: sp}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return &value.Bool{Value: b, Sp: sp}, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, err
		}
		return &value.Int{Value: i, Sp: sp}, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return &value.Float{Value: f, Sp: sp}, nil
	default:
		return &value.String{Value: n.Value, Sp: sp}, nil
	}
}

// FromTOML decodes a TOML document. The parser hands back plain maps, so
// keys come out sorted.
func FromTOML(data []byte, sp span.Span) (value.Value, *diag.Error) {
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, diag.NewCantConvert("structured data", "TOML", sp)
	}
	return fromInterface(raw, sp), nil
}

func fromInterface(raw interface{}, sp span.Span) value.Value {
	switch t := raw.(type) {
	case nil:
		return &value.Nothing{Sp: sp}
	case bool:
		return &value.Bool{Value: t, Sp: sp}
	case int64:
		return &value.Int{Value: t, Sp: sp}
	case int:
		return &value.Int{Value: int64(t), Sp: sp}
	case float64:
		return &value.Float{Value: t, Sp: sp}
	case string:
		return &value.String{Value: t, Sp: sp}
	case []interface{}:
		items := make([]value.Value, len(t))
		for i, item := range t {
			items[i] = fromInterface(item, sp)
		}
		return &value.List{Items: items, Sp: sp}
	case []map[string]interface{}:
		items := make([]value.Value, len(t))
		for i, item := range t {
			items[i] = fromInterface(item, sp)
		}
		return &value.List{Items: items, Sp: sp}
	case map[string]interface{}:
		cols := make([]string, 0, len(t))
		for k := range t {
			cols = append(cols, k)
		}
		sort.Strings(cols)
		vals := make([]value.Value, len(cols))
		for i, k := range cols {
			vals[i] = fromInterface(t[k], sp)
		}
		return &value.Record{Cols: cols, Vals: vals, Sp: sp}
	default:
		return &value.String{Value: fmt.Sprintf("%v", t), Sp: sp}
	}
}

// FromINI decodes an INI document into a record of sections, each section
// a record of its keys, both in document order. Keys outside any section
// land under the default section's empty name.
func FromINI(data []byte, sp span.Span) (value.Value, *diag.Error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, diag.NewCantConvert("structured data", "INI", sp)
	}
	var cols []string
	var vals []value.Value
	for _, section := range f.Sections() {
		keys := section.Keys()
		if section.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		secCols := make([]string, 0, len(keys))
		secVals := make([]value.Value, 0, len(keys))
		for _, key := range keys {
			secCols = append(secCols, key.Name())
			secVals = append(secVals, &value.String{Value: key.Value(), Sp: sp})
		}
		name := section.Name()
		if name == ini.DefaultSection {
			name = ""
		}
		cols = append(cols, name)
		vals = append(vals, &value.Record{Cols: secCols, Vals: secVals, Sp: sp})
	}
	return &value.Record{Cols: cols, Vals: vals, Sp: sp}, nil
}

func unescapeForm(s string) (string, error) {
	return url.QueryUnescape(s)
}

// FromURLEncoded decodes an application/x-www-form-urlencoded body into a
// record, pairs in document order. Repeated keys keep the last value.
func FromURLEncoded(data []byte, sp span.Span) (value.Value, *diag.Error) {
	body := strings.TrimSpace(string(data))
	var cols []string
	var vals []value.Value
	seen := make(map[string]int)
	if body != "" {
		for _, pair := range strings.Split(body, "&") {
			key, val, _ := strings.Cut(pair, "=")
			k, err := unescapeForm(key)
			if err != nil {
				return nil, diag.NewCantConvert("record", "url-encoded text", sp)
			}
			v, err := unescapeForm(val)
			if err != nil {
				return nil, diag.NewCantConvert("record", "url-encoded text", sp)
			}
			if idx, dup := seen[k]; dup {
				vals[idx] = &value.String{Value: v, Sp: sp}
				continue
			}
			seen[k] = len(cols)
			cols = append(cols, k)
			vals = append(vals, &value.String{Value: v, Sp: sp})
		}
	}
	return &value.Record{Cols: cols, Vals: vals, Sp: sp}, nil
}

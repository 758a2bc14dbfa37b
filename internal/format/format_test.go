package format

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rillshell/rill/internal/span"
	"github.com/rillshell/rill/internal/value"
)

func sp() span.Span { return span.Unknown() }

func TestFromJSONKeepsKeyOrder(t *testing.T) {
	v, err := FromJSON([]byte(`{"zebra": 1, "apple": 2, "mango": 3}`), sp())
	require.Nil(t, err)
	rec := v.(*value.Record)
	require.Equal(t, []string{"zebra", "apple", "mango"}, rec.Cols)
}

func TestFromJSONTypes(t *testing.T) {
	v, err := FromJSON([]byte(`{"i": 3, "f": 1.5, "s": "x", "b": true, "n": null, "l": [1, 2]}`), sp())
	require.Nil(t, err)
	rec := v.(*value.Record)
	require.IsType(t, &value.Int{}, rec.Vals[0])
	require.IsType(t, &value.Float{}, rec.Vals[1])
	require.IsType(t, &value.String{}, rec.Vals[2])
	require.IsType(t, &value.Bool{}, rec.Vals[3])
	require.IsType(t, &value.Nothing{}, rec.Vals[4])
	require.IsType(t, &value.List{}, rec.Vals[5])
}

func TestFromJSONRejectsGarbage(t *testing.T) {
	_, err := FromJSON([]byte(`{"unterminated`), sp())
	require.NotNil(t, err)
	_, err = FromJSON([]byte(`{} trailing`), sp())
	require.NotNil(t, err)
}

func TestFromYAMLKeepsKeyOrder(t *testing.T) {
	v, err := FromYAML([]byte("zebra: 1\napple: 2\n"), sp())
	require.Nil(t, err)
	rec := v.(*value.Record)
	require.Equal(t, []string{"zebra", "apple"}, rec.Cols)
	require.Equal(t, int64(1), rec.Vals[0].(*value.Int).Value)
}

func TestFromYAMLNestedSequences(t *testing.T) {
	v, err := FromYAML([]byte("items:\n  - name: a\n  - name: b\n"), sp())
	require.Nil(t, err)
	items := v.(*value.Record).Vals[0].(*value.List)
	require.Len(t, items.Items, 2)
	require.Equal(t, "b", items.Items[1].(*value.Record).Vals[0].(*value.String).Value)
}

func TestFromYAMLEmptyDocument(t *testing.T) {
	v, err := FromYAML(nil, sp())
	require.Nil(t, err)
	require.IsType(t, &value.Nothing{}, v)
}

func TestFromTOMLTables(t *testing.T) {
	src := []byte("title = \"demo\"\n\n[owner]\nname = \"kim\"\nage = 30\n")
	v, err := FromTOML(src, sp())
	require.Nil(t, err)
	rec := v.(*value.Record)
	owner, ok := rec.Get("owner")
	require.True(t, ok)
	name, ok := owner.(*value.Record).Get("name")
	require.True(t, ok)
	require.Equal(t, "kim", name.(*value.String).Value)
	age, _ := owner.(*value.Record).Get("age")
	require.Equal(t, int64(30), age.(*value.Int).Value)
}

func TestFromINISectionsInOrder(t *testing.T) {
	src := []byte("[server]\nhost = localhost\nport = 8080\n\n[client]\nretries = 3\n")
	v, err := FromINI(src, sp())
	require.Nil(t, err)
	rec := v.(*value.Record)
	require.Equal(t, []string{"server", "client"}, rec.Cols)
	server := rec.Vals[0].(*value.Record)
	require.Equal(t, []string{"host", "port"}, server.Cols)
	require.Equal(t, "8080", server.Vals[1].(*value.String).Value)
}

func TestFromURLEncoded(t *testing.T) {
	v, err := FromURLEncoded([]byte("bread=baguette&cheese=comt%C3%A9&meat=ham"), sp())
	require.Nil(t, err)
	rec := v.(*value.Record)
	require.Equal(t, []string{"bread", "cheese", "meat"}, rec.Cols)
	require.Equal(t, "comté", rec.Vals[1].(*value.String).Value)
}

func TestFromURLEncodedLastValueWinsOnRepeat(t *testing.T) {
	v, err := FromURLEncoded([]byte("a=1&b=2&a=3"), sp())
	require.Nil(t, err)
	rec := v.(*value.Record)
	require.Equal(t, []string{"a", "b"}, rec.Cols)
	require.Equal(t, "3", rec.Vals[0].(*value.String).Value)
}

func TestFromURLEncodedEmptyBody(t *testing.T) {
	v, err := FromURLEncoded([]byte("  "), sp())
	require.Nil(t, err)
	require.Empty(t, v.(*value.Record).Cols)
}

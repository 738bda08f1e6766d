package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFlexListJSON(t *testing.T) {
	var single FlexList[string]
	require.NoError(t, json.Unmarshal([]byte(`"c1"`), &single))
	require.Equal(t, []string{"c1"}, single.Slice())

	var many FlexList[string]
	require.NoError(t, json.Unmarshal([]byte(`["c1","c2"]`), &many))
	require.Equal(t, []string{"c1", "c2"}, many.Slice())

	var none FlexList[string]
	require.NoError(t, json.Unmarshal([]byte(`null`), &none))
	require.Empty(t, none)
}

func TestFlexListYAML(t *testing.T) {
	var doc struct {
		Tag FlexList[string] `yaml:"tag"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("tag: marked\n"), &doc))
	require.Equal(t, []string{"marked"}, doc.Tag.Slice())

	require.NoError(t, yaml.Unmarshal([]byte("tag: [a, b]\n"), &doc))
	require.Equal(t, []string{"a", "b"}, doc.Tag.Slice())
}

package pricing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomization_UnmarshalFlatMap(t *testing.T) {
	var c Customization
	err := json.Unmarshal([]byte(`{"Capacity":"25 G","Finish":"Matt","Printing Location":"Front","Size":"4x6","Colours":4,"Notes":null}`), &c)
	require.NoError(t, err)

	assert.Equal(t, "25 G", c.Capacity)
	assert.Equal(t, FinishMatt, c.FinishValue())
	assert.Equal(t, "Front", c.PrintingLocation)
	assert.Equal(t, "4x6", c.Size)
	assert.Equal(t, map[string]string{"Colours": "4"}, c.Extra)
}

func TestCustomization_RejectsNonObject(t *testing.T) {
	var c Customization
	assert.Error(t, json.Unmarshal([]byte(`["Capacity"]`), &c))
}

func TestCustomization_MarshalRoundTripsToMap(t *testing.T) {
	c := CustomizationFromMap(map[string]string{"Capacity": "50 G", "Lamination": "Soft touch"})

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Capacity":"50 G","Lamination":"Soft touch"}`, string(data))
}

func TestCustomization_Fingerprint(t *testing.T) {
	a := CustomizationFromMap(map[string]string{"Finish": "Gloss", "Capacity": "50 G"})
	b := Customization{Capacity: "50 G", Finish: "Gloss"}
	c := Customization{Capacity: "100 G", Finish: "Gloss"}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Equal(t, `{"Capacity":"50 G","Finish":"Gloss"}`, a.Fingerprint())
	assert.Equal(t, "", Customization{}.Fingerprint())
	assert.True(t, Customization{}.IsEmpty())
}

func TestCustomization_FingerprintSeparatorsInValues(t *testing.T) {
	tests := []struct {
		name string
		a, b Customization
	}{
		{
			"value carrying another attribute",
			Customization{Capacity: "50 G;Finish=Matt"},
			Customization{Capacity: "50 G", Finish: "Matt"},
		},
		{
			"extra value carrying a size",
			Customization{Extra: map[string]string{"Colour": "x;Size=L"}},
			Customization{Size: "L", Extra: map[string]string{"Colour": "x"}},
		},
		{
			"key carrying an equals sign",
			Customization{Extra: map[string]string{"Ink=Gold": ""}},
			Customization{Extra: map[string]string{"Ink": "=Gold"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, tt.a.Fingerprint(), tt.b.Fingerprint())
		})
	}
}

func TestParseFinish(t *testing.T) {
	assert.Equal(t, FinishGloss, ParseFinish(""))
	assert.Equal(t, FinishGloss, ParseFinish("Gloss"))
	assert.Equal(t, FinishMatt, ParseFinish(" Matt "))
	assert.Equal(t, FinishMatt, ParseFinish("matte"))
	assert.Equal(t, FinishGloss, ParseFinish("holographic"))
}

func TestCustomizationLabel(t *testing.T) {
	c := Customization{Finish: "Matt", Capacity: "25 G"}
	assert.Equal(t, "Capacity: 25 G, Finish: Matt", c.Label())
	assert.Equal(t, "", Customization{}.Label())
}

package form

import (
	"sort"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/formwizard/types"
)

func TestDefaultsHaveFullShape(t *testing.T) {
	a := Defaults()
	require.Len(t, a.BreedChoices, 3)
	for i, c := range a.BreedChoices {
		assert.Equal(t, i+1, c.Priority)
		assert.Empty(t, c.Breed)
	}
	assert.NotNil(t, a.Sizes)
	assert.Empty(t, a.Sizes)
	assert.False(t, a.SpayNeuterAgreement)
	assert.Zero(t, a.PreviousPuppies)
}

func TestCloneIsDeep(t *testing.T) {
	a := Defaults()
	a.Sizes = []string{"small"}
	b := a.Clone()
	b.Sizes[0] = "large"
	b.BreedChoices[0].Breed = "Poodle"
	assert.Equal(t, "small", a.Sizes[0])
	assert.Empty(t, a.BreedChoices[0].Breed)
}

func TestTypedFieldRoundTrip(t *testing.T) {
	a := Defaults()
	FirstName.Set(&a, "Jane")
	HasChildren.Set(&a, true)
	Delivery.Set(&a, DeliveryPickup)
	PreviousPuppies.Set(&a, 2)

	assert.Equal(t, "Jane", a.FirstName)
	assert.True(t, HasChildren.Get(&a))
	assert.Equal(t, DeliveryPickup, a.DeliveryMethod)
	assert.Equal(t, 2, PreviousPuppies.Get(&a))
	assert.Equal(t, "/firstName", FirstName.Pointer())
}

func TestRegistryCoversEveryField(t *testing.T) {
	var keys []string
	for _, info := range All() {
		keys = append(keys, info.Key)
		assert.True(t, info.Step.Valid(), info.Key)
	}
	sort.Strings(keys)

	// Keys must match the JSON names of Application.
	data, err := Marshal(Defaults())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, sonic.Unmarshal(data, &m))
	var jsonKeys []string
	for k := range m {
		jsonKeys = append(jsonKeys, k)
	}
	sort.Strings(jsonKeys)
	assert.Equal(t, jsonKeys, keys)

	info, ok := Lookup("childrenAges")
	require.True(t, ok)
	assert.Equal(t, types.StepHousehold, info.Step)
	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestStepPointersIncludeListElements(t *testing.T) {
	paths := StepPointers(types.StepPreferences)
	assert.Contains(t, paths, "/breedChoices")
	assert.Contains(t, paths, "/breedChoices/-/breed")
	assert.Contains(t, paths, "/sizes/-")
	assert.NotContains(t, paths, "/firstName")
}

func TestCoerceCount(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{"3", 3},
		{" 4 ", 4},
		{"2.7", 2},
		{"lots", 0},
		{"", 0},
		{-5, 0},
		{float64(6), 6},
		{true, 0},
		{nil, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CoerceCount(tt.in), "input %#v", tt.in)
	}
	assert.Equal(t, 0, CoerceValue("previousPuppies", "several"))
	assert.Equal(t, "several", CoerceValue("firstName", "several"))
}

func TestUnmarshalBackfillsAndDropsUnknown(t *testing.T) {
	a, err := Unmarshal([]byte(`{"firstName":"Jane","legacyField":"x","breedChoices":null}`))
	require.NoError(t, err)
	assert.Equal(t, "Jane", a.FirstName)
	assert.Len(t, a.BreedChoices, 3)
	assert.NotNil(t, a.Sizes)

	a, err = Unmarshal([]byte(`{"breedChoices":[{"priority":1,"breed":"Beagle"}]}`))
	require.NoError(t, err)
	require.Len(t, a.BreedChoices, 3)
	assert.Equal(t, "Beagle", a.BreedChoices[0].Breed)
	assert.Equal(t, BreedChoice{Priority: 3}, a.BreedChoices[2])

	_, err = Unmarshal([]byte(`{"hasFence":"yes"}`))
	assert.Error(t, err)
}

func TestJSONSchemaMentionsFields(t *testing.T) {
	s, err := JSONSchema()
	require.NoError(t, err)
	assert.Contains(t, s, "spayNeuterAgreement")
	assert.Contains(t, s, "flight-nanny")
}

package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCEID_String(t *testing.T) {
	assert.Equal(t, "F1CE1", CEID{Frame: 1, Seq: 1}.String())
	assert.Equal(t, "F12CE3", CEID{Frame: 12, Seq: 3}.String())
}

func TestCEID_OrdersNumerically(t *testing.T) {
	// F10CE1 sorts after F9CE2 even though the strings compare the other way.
	ids := []CEID{{10, 1}, {9, 2}, {9, 1}, {2, 11}, {2, 2}}
	SortCEIDs(ids)

	want := []CEID{{2, 2}, {2, 11}, {9, 1}, {9, 2}, {10, 1}}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("sorted ids mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCEID(t *testing.T) {
	tests := []struct {
		in      string
		want    CEID
		wantErr bool
	}{
		{in: "F1CE1", want: CEID{1, 1}},
		{in: "F24CE130", want: CEID{24, 130}},
		{in: "F0CE1", wantErr: true},
		{in: "F1CE", wantErr: true},
		{in: "CE1", wantErr: true},
		{in: "F1CE1x", wantErr: true},
		{in: "F01CE1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCEID(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCEID_JSONUsesStringForm(t *testing.T) {
	data, err := json.Marshal([]CEID{{3, 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `["F3CE2"]`, string(data))

	var back []CEID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []CEID{{3, 2}}, back)
}

func TestCEID_ZeroRoundTripsAsEmptyString(t *testing.T) {
	type holder struct {
		Node CEID `json:"node"`
	}
	data, err := json.Marshal(holder{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"node":""}`, string(data))

	back := holder{Node: CEID{Frame: 9, Seq: 9}}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Node.IsZero())

	_, err = ParseCEID("F0CE0")
	require.Error(t, err)
}

func TestFeature_JSONRoundTripWithoutExtentNode(t *testing.T) {
	data, err := json.Marshal(Feature{ID: "x", Kind: FeatureMCS})
	require.NoError(t, err)

	var back Feature
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "x", back.ID)
	assert.True(t, back.MaxExtentNode.IsZero())
}

func TestUniqueSortedCEIDs(t *testing.T) {
	in := []CEID{{2, 1}, {1, 1}, {2, 1}, {1, 2}}
	got := UniqueSortedCEIDs(in)

	assert.Equal(t, []CEID{{1, 1}, {1, 2}, {2, 1}}, got)
	assert.Len(t, in, 4, "input must not be modified")
}

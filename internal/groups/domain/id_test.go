package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestID_Number(t *testing.T) {
	require.Equal(t, int64(123), ID(123).Number())
	require.Equal(t, UnsetIDNumber, UnsetID.Number())
	require.False(t, UnsetID.IsPersisted())
	require.True(t, ID(1).IsPersisted())
}

func TestID_String(t *testing.T) {
	require.Equal(t, "_123_1", ID(123).String())
	require.Equal(t, "new", UnsetID.String())
}

func TestParseID(t *testing.T) {
	tests := []struct {
		input   string
		want    ID
		wantErr bool
	}{
		{input: "_123_1", want: ID(123)},
		{input: "123", want: ID(123)},
		{input: " 7 ", want: ID(7)},
		{input: "", wantErr: true},
		{input: "_abc_1", wantErr: true},
		{input: "_123", wantErr: true},
		{input: "0", wantErr: true},
		{input: "-4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseID(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseSelector(t *testing.T) {
	sel, err := ParseSelector("sets")
	require.NoError(t, err)
	require.Equal(t, SelectGroupSets, sel)

	sel, err = ParseSelector("")
	require.NoError(t, err)
	require.Equal(t, SelectGroups, sel, "empty selector lists plain groups")

	_, err = ParseSelector("nope")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

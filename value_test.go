package rapsqlite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValue_RoundTripsEachStorageClass(t *testing.T) {
	cases := []struct {
		name string
		in   any
		kind Kind
	}{
		{"int", 42, KindInteger},
		{"int64", int64(-7), KindInteger},
		{"uint32", uint32(9), KindInteger},
		{"float64", 3.25, KindReal},
		{"string", "hello", KindText},
		{"bytes", []byte{1, 2, 3}, KindBlob},
		{"bool_true", true, KindInteger},
		{"nil", nil, KindNull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := NewValue(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.kind, v.Kind)
		})
	}
}

func TestNewValue_UintOutOfRangeRejected(t *testing.T) {
	_, err := NewValue(uint64(1) << 63)
	require.Error(t, err)
	var rangeErr *OutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
}

func TestNewValue_InvalidUTF8Rejected(t *testing.T) {
	_, err := NewValue(string([]byte{0xff, 0xfe}))
	require.Error(t, err)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
}

func TestNewValue_UnsupportedTypeRejected(t *testing.T) {
	_, err := NewValue(struct{ X int }{X: 1})
	require.Error(t, err)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
}

func TestValue_InterfaceRoundTrip(t *testing.T) {
	require.Equal(t, int64(5), IntegerValue(5).Interface())
	require.Equal(t, 1.5, RealValue(1.5).Interface())
	require.Equal(t, "x", TextValue("x").Interface())
	require.Equal(t, []byte{9}, BlobValue([]byte{9}).Interface())
	require.Nil(t, Null.Interface())
}

func TestBindArgs_FailsFastOnFirstBadArgument(t *testing.T) {
	_, err := bindArgs([]any{1, "ok", struct{}{}})
	require.Error(t, err)
}

package rowcodec

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFields = []Field{
	{Column: "id"},
	{Column: "cycle"},
	{Column: "payload", JSON: true},
	{Column: "states", JSON: true},
	{Column: "is_global", Bool: true},
}

func TestColumns(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "id, cycle, payload, states, is_global", Columns(testFields))
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(?)", Placeholders(1))
	assert.Equal(t, "(?, ?, ?)", Placeholders(3))
}

func TestBindArgs_AlignsAndSerializes(t *testing.T) {
	t.Parallel()

	type state struct {
		AccountID string `json:"accountId"`
		Hash      string `json:"hash"`
	}

	args, err := BindArgs("rec-1", testFields, []any{
		"rec-1",
		int64(7),
		json.RawMessage(`{"amount":42}`),
		[]state{{AccountID: "acct-1", Hash: "h1"}},
		true,
	})
	require.NoError(t, err)
	require.Len(t, args, 5)

	assert.Equal(t, "rec-1", args[0])
	assert.Equal(t, int64(7), args[1])
	assert.JSONEq(t, `{"amount":42}`, args[2].(string))
	assert.JSONEq(t, `[{"accountId":"acct-1","hash":"h1"}]`, args[3].(string))
	assert.Equal(t, int64(1), args[4])
}

func TestBindArgs_FalseBoolBindsZero(t *testing.T) {
	t.Parallel()

	args, err := BindArgs("rec-1", []Field{{Column: "is_global", Bool: true}}, []any{false})
	require.NoError(t, err)
	assert.Equal(t, int64(0), args[0])
}

func TestBindArgs_AbsentPayloadsBindNull(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
	}{
		{"nil interface", nil},
		{"empty raw message", json.RawMessage(nil)},
		{"nil pointer", (*struct{ A int })(nil)},
		{"nil slice", []int(nil)},
		{"nil map", map[string]int(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args, err := BindArgs("rec-1", []Field{{Column: "payload", JSON: true}}, []any{tt.value})
			require.NoError(t, err)
			assert.Nil(t, args[0])
		})
	}
}

func TestBindArgs_EmptyValues(t *testing.T) {
	t.Parallel()

	_, err := BindArgs("rec-9", testFields, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rec-9")
	assert.Contains(t, err.Error(), "no bindable values")
}

func TestBindArgs_CountMismatch(t *testing.T) {
	t.Parallel()

	_, err := BindArgs("rec-9", testFields, []any{"only-one"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rec-9")
}

func TestBindArgs_NonBoolForBoolField(t *testing.T) {
	t.Parallel()

	_, err := BindArgs("rec-9", []Field{{Column: "is_global", Bool: true}}, []any{int64(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is_global")
}

func TestDecodeJSON_TriState(t *testing.T) {
	t.Parallel()

	type payload struct {
		Amount int `json:"amount"`
	}

	var p payload
	decoded, err := DecodeJSON(sql.NullString{}, &p)
	require.NoError(t, err)
	assert.False(t, decoded, "NULL column must stay undecoded")

	decoded, err = DecodeJSON(sql.NullString{Valid: true, String: ""}, &p)
	require.NoError(t, err)
	assert.False(t, decoded, "empty text must stay undecoded")

	decoded, err = DecodeJSON(sql.NullString{Valid: true, String: `{"amount":3}`}, &p)
	require.NoError(t, err)
	assert.True(t, decoded)
	assert.Equal(t, 3, p.Amount)
}

func TestDecodeJSON_MalformedText(t *testing.T) {
	t.Parallel()

	var p struct{}
	_, err := DecodeJSON(sql.NullString{Valid: true, String: "{not json"}, &p)
	assert.Error(t, err)
}

func TestDecodeRaw(t *testing.T) {
	t.Parallel()

	assert.Nil(t, DecodeRaw(sql.NullString{}))
	assert.Nil(t, DecodeRaw(sql.NullString{Valid: true, String: ""}))
	assert.Equal(t, json.RawMessage(`{"a":1}`), DecodeRaw(sql.NullString{Valid: true, String: `{"a":1}`}))
}

func TestDecodeBool(t *testing.T) {
	t.Parallel()

	assert.True(t, DecodeBool(1))
	assert.False(t, DecodeBool(0))
	assert.False(t, DecodeBool(2))
	assert.False(t, DecodeBool(-1))
}

func TestRoundTrip_StructuredField(t *testing.T) {
	t.Parallel()

	type state struct {
		AccountID string `json:"accountId"`
		IsGlobal  bool   `json:"isGlobal"`
	}
	original := []state{{AccountID: "a1", IsGlobal: true}, {AccountID: "a2"}}

	args, err := BindArgs("rec-1", []Field{{Column: "states", JSON: true}}, []any{original})
	require.NoError(t, err)

	var decoded []state
	ok, err := DecodeJSON(sql.NullString{Valid: true, String: args[0].(string)}, &decoded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, original, decoded)
}

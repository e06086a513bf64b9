package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSixID_StringRoundTrip(t *testing.T) {
	id := NewSixID()
	encoded := id.String()
	require.Len(t, encoded, 10)

	parsed, err := ParseSixID(encoded)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseSixID_Leniency(t *testing.T) {
	id := SixID{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02}
	encoded := id.String()

	// Hyphens and lowercase are tolerated on input.
	withHyphen := encoded[:5] + "-" + encoded[5:]
	parsed, err := ParseSixID(withHyphen)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseSixID_Invalid(t *testing.T) {
	_, err := ParseSixID("TOOSHORT")
	assert.Error(t, err)

	_, err = ParseSixID("UUUUUUUUUU") // U is not in the Crockford alphabet
	assert.Error(t, err)
}

func TestParseSixID_EmptyIsZero(t *testing.T) {
	parsed, err := ParseSixID("")
	require.NoError(t, err)
	assert.True(t, parsed.IsZero())
}

func TestSixID_JSON(t *testing.T) {
	id := NewSixID()
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `"`+id.String()+`"`, string(data))

	var decoded SixID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)
}

func TestSixID_BSONBinarySubtype(t *testing.T) {
	type doc struct {
		ID SixID `bson:"_id"`
	}

	id := NewSixID()
	raw, err := bson.Marshal(doc{ID: id})
	require.NoError(t, err)

	var decoded doc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, id, decoded.ID)

	// Wrong-length binary payloads are rejected.
	var target SixID
	badRaw, err := bson.Marshal(bson.M{"_id": []byte{1, 2, 3}})
	require.NoError(t, err)
	val := bson.Raw(badRaw).Lookup("_id")
	assert.Error(t, target.UnmarshalBSONValue(val.Type, val.Value))
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string
	Count uint32
}

func TestMap_SaveLoadRemove(t *testing.T) {
	store := NewMemStore()
	m := NewMap[string, widget]("widgets", StringKey{}, Schema)

	_, err := m.MayLoad(store, "a")
	require.NoError(t, err)

	require.NoError(t, m.Save(store, "a", &widget{Name: "a", Count: 1}))
	assert.True(t, m.Has(store, "a"))

	got, err := m.Load(store, "a")
	require.NoError(t, err)
	assert.Equal(t, widget{Name: "a", Count: 1}, got)

	m.Remove(store, "a")
	assert.False(t, m.Has(store, "a"))

	_, err = m.Load(store, "a")
	assert.Error(t, err)
}

func TestMap_Update(t *testing.T) {
	store := NewMemStore()
	m := NewMap[string, widget]("widgets", StringKey{}, Schema)

	_, err := m.Update(store, "a", func(cur *widget) (*widget, error) {
		assert.Nil(t, cur)
		return &widget{Name: "a", Count: 1}, nil
	})
	require.NoError(t, err)

	_, err = m.Update(store, "a", func(cur *widget) (*widget, error) {
		require.NotNil(t, cur)
		cur.Count++
		return cur, nil
	})
	require.NoError(t, err)

	got, err := m.Load(store, "a")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.Count)

	_, err = m.Update(store, "a", func(cur *widget) (*widget, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, m.Has(store, "a"))
}

func TestMap_RangeOrderAndBounds(t *testing.T) {
	store := NewMemStore()
	m := NewMap[uint32, widget]("counters", Uint32Key{}, Schema)

	for i := uint32(0); i < 5; i++ {
		require.NoError(t, m.Save(store, i, &widget{Count: i}))
	}

	var ascending []uint32
	require.NoError(t, m.Keys(store, nil, nil, Ascending, func(k uint32) bool {
		ascending = append(ascending, k)
		return true
	}))
	assert.Equal(t, []uint32{0, 1, 2, 3, 4}, ascending)

	var descending []uint32
	require.NoError(t, m.Keys(store, nil, nil, Descending, func(k uint32) bool {
		descending = append(descending, k)
		return true
	}))
	assert.Equal(t, []uint32{4, 3, 2, 1, 0}, descending)

	var bounded []uint32
	require.NoError(t, m.Keys(store, Inclusive[uint32](1), Exclusive[uint32](4), Ascending, func(k uint32) bool {
		bounded = append(bounded, k)
		return true
	}))
	assert.Equal(t, []uint32{1, 2, 3}, bounded)
}

func TestMap_Clear(t *testing.T) {
	store := NewMemStore()
	m := NewMap[uint32, widget]("counters", Uint32Key{}, Schema)
	for i := uint32(0); i < 3; i++ {
		require.NoError(t, m.Save(store, i, &widget{Count: i}))
	}
	require.NoError(t, m.Clear(store, nil, nil, 0))
	assert.True(t, m.IsEmpty(store))
}

// taggedKey is a tagged-union style composite key: a one-byte variant tag
// followed by the variant's own raw bytes, with the tag as a fixed,
// length-prefixed leading segment and the body as the raw final segment.
type taggedKey struct {
	Tag  byte
	Body []byte
}

const (
	tagKindAccount = byte(0x01)
	tagKindCode    = byte(0x02)
)

type taggedKeyCodec struct{}

func (taggedKeyCodec) RawKeys(k taggedKey) []RawKey {
	return []RawKey{RawKey{k.Tag}, RawKey(k.Body)}
}

func (taggedKeyCodec) Parse(raw []byte) (taggedKey, error) {
	tag, rest, err := splitOneSegment(raw)
	if err != nil {
		return taggedKey{}, err
	}
	return taggedKey{Tag: tag[0], Body: rest}, nil
}

func TestMap_Prefix(t *testing.T) {
	store := NewMemStore()
	m := NewMap[taggedKey, widget]("registry", taggedKeyCodec{}, Schema)

	require.NoError(t, m.Save(store, taggedKey{tagKindAccount, []byte("alice")}, &widget{Name: "alice-account"}))
	require.NoError(t, m.Save(store, taggedKey{tagKindAccount, []byte("bob")}, &widget{Name: "bob-account"}))
	require.NoError(t, m.Save(store, taggedKey{tagKindCode, []byte("wasm1")}, &widget{Name: "wasm1-code"}))

	accounts := m.Prefix(RawKey{tagKindAccount})

	var names []string
	require.NoError(t, accounts.Range(store, nil, nil, Ascending, func(k taggedKey, v widget) bool {
		names = append(names, v.Name)
		return true
	}))
	assert.ElementsMatch(t, []string{"alice-account", "bob-account"}, names)
}

func TestIncrementor(t *testing.T) {
	store := NewMemStore()
	seq := NewIncrementor[uint32]("sequence")
	require.NoError(t, seq.Initialize(store))

	v, err := seq.Load(store)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)

	v, err = seq.Increment(store)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)

	v, err = seq.Increment(store)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v)
}

package stratadump_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/AndrewDonelson/stratadump"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip[T any](t *testing.T, v T) T {
	t.Helper()
	b, err := stratadump.ToBinary(v)
	require.NoError(t, err)
	got, err := stratadump.FromBinary[T](b)
	require.NoError(t, err)
	return got
}

func checkRoundTrip[T any](t *testing.T, v T) {
	t.Helper()
	assert.Equal(t, v, roundTrip(t, v))
}

func encodedLen[T any](t *testing.T, v T) int {
	t.Helper()
	b, err := stratadump.ToBinary(v)
	require.NoError(t, err)
	return len(b)
}

// ── Integers ────────────────────────────────────────────────────────────────

func checkIntegerType[T stratadump.Integer](t *testing.T, lo, hi T) {
	t.Helper()
	checkRoundTrip(t, T(0))
	checkRoundTrip(t, T(42))
	checkRoundTrip(t, lo)
	checkRoundTrip(t, hi)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		checkRoundTrip(t, T(rng.Uint64()))
	}
}

func TestInteger_RoundTrip(t *testing.T) {
	t.Run("int", func(t *testing.T) { checkIntegerType[int](t, math.MinInt, math.MaxInt) })
	t.Run("int8", func(t *testing.T) { checkIntegerType[int8](t, math.MinInt8, math.MaxInt8) })
	t.Run("int16", func(t *testing.T) { checkIntegerType[int16](t, math.MinInt16, math.MaxInt16) })
	t.Run("int32", func(t *testing.T) { checkIntegerType[int32](t, math.MinInt32, math.MaxInt32) })
	t.Run("int64", func(t *testing.T) { checkIntegerType[int64](t, math.MinInt64, math.MaxInt64) })
	t.Run("uint8", func(t *testing.T) { checkIntegerType[uint8](t, 0, math.MaxUint8) })
	t.Run("uint16", func(t *testing.T) { checkIntegerType[uint16](t, 0, math.MaxUint16) })
	t.Run("uint32", func(t *testing.T) { checkIntegerType[uint32](t, 0, math.MaxUint32) })
	t.Run("uint64", func(t *testing.T) { checkIntegerType[uint64](t, 0, math.MaxUint64) })
	t.Run("uint", func(t *testing.T) { checkIntegerType[uint](t, 0, math.MaxUint) })
}

func TestInteger_Sizes(t *testing.T) {
	assert.Equal(t, 1, encodedLen(t, 0))
	assert.Equal(t, 1, encodedLen(t, 42))
	assert.Equal(t, 1, encodedLen(t, 127))
	assert.Equal(t, 2, encodedLen(t, 128))
	assert.Equal(t, 2, encodedLen(t, 0x3fff))
	assert.Equal(t, 4, encodedLen(t, 0x4fff))
	assert.Equal(t, 4, encodedLen(t, 0x3effffff))
	assert.Equal(t, 9, encodedLen(t, 0x4f000000))
	assert.Equal(t, 9, encodedLen(t, uint64(0xffffffffffffffff)))
	assert.Equal(t, 9, encodedLen(t, -1))
}

func TestInteger_TierBoundaries(t *testing.T) {
	cases := []struct {
		v    uint64
		size int
	}{
		{127, 1}, {128, 2},
		{0x3fff, 2}, {0x4000, 4},
		{0x3effffff, 4}, {0x3f000000, 9},
		{0x3fffffff, 9}, {math.MaxUint64, 9},
	}
	for _, c := range cases {
		assert.Equal(t, c.size, encodedLen(t, c.v), "value %#x", c.v)
		assert.Equal(t, c.size, stratadump.EncodedIntSize(c.v), "value %#x", c.v)
		checkRoundTrip(t, c.v)
	}
}

func TestInteger_NegativeIsSignExtended(t *testing.T) {
	small, err := stratadump.ToBinary(int8(-1))
	require.NoError(t, err)
	wide, err := stratadump.ToBinary(int64(-1))
	require.NoError(t, err)
	assert.Equal(t, wide, small)
	assert.Equal(t, byte(0xff), small[0])
}

func TestInteger_OverflowIsMalformed(t *testing.T) {
	b, err := stratadump.ToBinary(uint32(300))
	require.NoError(t, err)
	_, err = stratadump.FromBinary[uint8](b)
	assert.ErrorIs(t, err, stratadump.ErrMalformed)

	b, err = stratadump.ToBinary(int64(-1))
	require.NoError(t, err)
	_, err = stratadump.FromBinary[uint32](b)
	assert.ErrorIs(t, err, stratadump.ErrMalformed)
}

func TestInteger_Truncated(t *testing.T) {
	b, err := stratadump.ToBinary(uint64(math.MaxUint64))
	require.NoError(t, err)
	_, err = stratadump.FromBinary[uint64](b[:5])
	assert.ErrorIs(t, err, stratadump.ErrTruncated)
}

// ── Floating point ──────────────────────────────────────────────────────────

func TestFloat64_RoundTrip(t *testing.T) {
	for _, v := range []float64{
		0, 42, math.MaxFloat64, -math.MaxFloat64,
		math.SmallestNonzeroFloat64, -math.SmallestNonzeroFloat64,
		0x1p-1022, -0x1p-1022,
		math.Inf(1), math.Inf(-1),
	} {
		checkRoundTrip(t, v)
	}
	negZero := roundTrip(t, math.Copysign(0, -1))
	assert.True(t, math.Signbit(negZero))
	assert.True(t, math.IsNaN(roundTrip(t, math.NaN())))
}

func TestFloat32_RoundTrip(t *testing.T) {
	for _, v := range []float32{
		0, 42, math.MaxFloat32, -math.MaxFloat32,
		math.SmallestNonzeroFloat32, -math.SmallestNonzeroFloat32,
		float32(math.Inf(1)), float32(math.Inf(-1)),
	} {
		checkRoundTrip(t, v)
	}
	assert.True(t, math.IsNaN(float64(roundTrip(t, float32(math.NaN())))))
	assert.Equal(t, 4, encodedLen(t, float32(1.5)))
	assert.Equal(t, 8, encodedLen(t, 1.5))
}

// ── Strings, bytes and bools ────────────────────────────────────────────────

func TestString_RoundTrip(t *testing.T) {
	checkRoundTrip(t, "")
	checkRoundTrip(t, "a")
	checkRoundTrip(t, "abc")
	checkRoundTrip(t, "A big brown hog jumps over the lazy dog")
	assert.Equal(t, []byte{0}, mustBinary(t, ""))
}

func TestBytes_RoundTripIsCopy(t *testing.T) {
	w := stratadump.NewBinaryWriter()
	require.NoError(t, stratadump.WriteBytes(w, []byte("first")))
	require.NoError(t, stratadump.WriteBytes(w, []byte("second")))

	r := stratadump.NewBinaryReader(w.Bytes())
	first, err := stratadump.ReadBytes(r)
	require.NoError(t, err)
	second, err := stratadump.ReadBytes(r)
	require.NoError(t, err)
	require.NoError(t, r.Finish())
	assert.Equal(t, []byte("first"), first)
	assert.Equal(t, []byte("second"), second)
}

func TestBool_RoundTrip(t *testing.T) {
	checkRoundTrip(t, false)
	checkRoundTrip(t, true)
	assert.Equal(t, []byte{1}, mustBinary(t, true))
}

func TestBool_Malformed(t *testing.T) {
	_, err := stratadump.FromBinary[bool]([]byte{2})
	assert.ErrorIs(t, err, stratadump.ErrMalformed)
}

func mustBinary[T any](t *testing.T, v T) []byte {
	t.Helper()
	b, err := stratadump.ToBinary(v)
	require.NoError(t, err)
	return b
}

// ── Custom framing ──────────────────────────────────────────────────────────

// twoStrings stores both lengths up front and the bytes as one raw run.
type twoStrings struct {
	a, b string
}

func (v twoStrings) EncodeDump(w stratadump.Writer) error {
	if err := stratadump.WriteInt(w, len(v.a)); err != nil {
		return err
	}
	if err := stratadump.WriteInt(w, len(v.b)); err != nil {
		return err
	}
	if err := w.WriteRaw([]byte(v.a)); err != nil {
		return err
	}
	return w.WriteRaw([]byte(v.b))
}

func (v *twoStrings) DecodeDump(r stratadump.Reader) error {
	sizeA, err := stratadump.ReadInt[int](r)
	if err != nil {
		return err
	}
	sizeB, err := stratadump.ReadInt[int](r)
	if err != nil {
		return err
	}
	ab, err := r.ReadRaw(sizeA + sizeB)
	if err != nil {
		return err
	}
	v.a, v.b = string(ab[:sizeA]), string(ab[sizeA:])
	return nil
}

func TestRawFraming_TwoStrings(t *testing.T) {
	checkRoundTrip(t, twoStrings{a: "", b: "abc"})
	checkRoundTrip(t, twoStrings{a: "hello", b: "world"})
}

type jsonDoc struct {
	Foo int    `json:"foo"`
	Bar string `json:"bar"`
}

func TestCodecBacked_MsgPackValue(t *testing.T) {
	v := stratadump.MsgPackValue[jsonDoc]{V: jsonDoc{Foo: 42, Bar: "baz"}}
	checkRoundTrip(t, v)
}

func TestCodecBacked_JSONValue(t *testing.T) {
	v := stratadump.JSONValue[jsonDoc]{V: jsonDoc{Foo: 7, Bar: "qux"}}
	checkRoundTrip(t, v)

	w := stratadump.NewBinaryWriter()
	require.NoError(t, stratadump.Write(w, v))
	assert.Contains(t, string(w.Bytes()), `{"foo":7,"bar":"qux"}`)

	var bad stratadump.JSONValue[jsonDoc]
	w = stratadump.NewBinaryWriter()
	require.NoError(t, stratadump.WriteString(w, "{not json"))
	err := bad.DecodeDump(stratadump.NewBinaryReader(w.Bytes()))
	assert.ErrorIs(t, err, stratadump.ErrMalformed)
}

// ── Containers and time ─────────────────────────────────────────────────────

func TestSliceMapOptional(t *testing.T) {
	w := stratadump.NewBinaryWriter()
	require.NoError(t, stratadump.WriteSlice(w, []string{"x", "", "zz"}))
	require.NoError(t, stratadump.WriteMap(w, map[string]int64{"b": -2, "a": 1}))
	five := 5
	require.NoError(t, stratadump.WriteOptional(w, &five))
	require.NoError(t, stratadump.WriteOptional[int](w, nil))
	require.NoError(t, stratadump.WriteSlice(w, []twoStrings{{a: "1", b: "2"}}))

	r := stratadump.NewBinaryReader(w.Bytes())
	s, err := stratadump.ReadSlice[string](r)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "", "zz"}, s)
	m, err := stratadump.ReadMap[string, int64](r)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 1, "b": -2}, m)
	p, err := stratadump.ReadOptional[int](r)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 5, *p)
	p, err = stratadump.ReadOptional[int](r)
	require.NoError(t, err)
	assert.Nil(t, p)
	ts, err := stratadump.ReadSlice[twoStrings](r)
	require.NoError(t, err)
	assert.Equal(t, []twoStrings{{a: "1", b: "2"}}, ts)
	require.NoError(t, r.Finish())
}

func TestMap_IsDeterministic(t *testing.T) {
	m := map[int]string{}
	for i := 0; i < 100; i++ {
		m[i*7] = "v"
	}
	w1 := stratadump.NewBinaryWriter()
	w2 := stratadump.NewBinaryWriter()
	require.NoError(t, stratadump.WriteMap(w1, m))
	require.NoError(t, stratadump.WriteMap(w2, m))
	assert.Equal(t, w1.Bytes(), w2.Bytes())
}

func TestTimeAndDuration(t *testing.T) {
	ts := time.Date(2026, 10, 19, 9, 30, 0, 123456789, time.UTC)
	checkRoundTrip(t, ts)
	checkRoundTrip(t, time.Time{})
	checkRoundTrip(t, 90*time.Second)
	checkRoundTrip(t, -time.Nanosecond)

	local := time.Date(2026, 1, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	assert.True(t, local.Equal(roundTrip(t, local)))
}

// ── Errors ──────────────────────────────────────────────────────────────────

func TestUnsupportedType(t *testing.T) {
	_, err := stratadump.ToBinary(struct{ X int }{X: 1})
	assert.ErrorIs(t, err, stratadump.ErrUnsupportedType)
	_, err = stratadump.FromBinary[complex64]([]byte{0})
	assert.ErrorIs(t, err, stratadump.ErrUnsupportedType)
}

func TestFromBinary_TrailingData(t *testing.T) {
	b := append(mustBinary(t, "abc"), 0)
	_, err := stratadump.FromBinary[string](b)
	assert.ErrorIs(t, err, stratadump.ErrTrailingData)
}

func TestBinaryWriter_FinishTwice(t *testing.T) {
	w := stratadump.NewBinaryWriter()
	require.NoError(t, w.Finish())
	assert.ErrorIs(t, w.Finish(), stratadump.ErrFinished)
	assert.ErrorIs(t, w.WriteRaw([]byte{1}), stratadump.ErrFinished)
}

package dtype

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var na = NewNASet(nil)

func classifyAll(texts ...string) Dtype {
	out := Dtype{}
	for _, t := range texts {
		out = Promote(out, Classify(t, false, false, false, na))
	}
	return out
}

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"1":       Int64,
		"-42":     Int64,
		"1.5":     Float64,
		"1e3":     Float64,
		"True":    Bool,
		"false":   Bool,
		"abc":     Object,
		"":        Empty,
		"NA":      Empty,
		" 1":      Int64,
		"2 ":      Int64,
		" 1.5 ":   Float64,
		"0x1p-2":  Object,
		"-0X1p-2": Object,
		"0x10":    Object,
		"1_000":   Object,
	}
	for text, kind := range cases {
		require.Equal(t, kind, Classify(text, false, false, false, na).Kind, text)
	}

	require.Equal(t, Object, Classify("1", false, true, false, na).Kind, "quoted numbers stay strings")
	require.Equal(t, Datetime, Classify("2022-01-24", false, false, true, na).Kind)
	require.Equal(t, Object, Classify("not a date", false, false, true, na).Kind)
	require.True(t, Classify("", true, false, false, na).HasNA)
}

func TestResolve(t *testing.T) {
	require.Equal(t, "float64", classifyAll("1", "").String())
	require.Equal(t, "int64", classifyAll("1", "2").String())
	require.Equal(t, "object", classifyAll("True", "").String())
	require.Equal(t, "float64", classifyAll("", "").String())
	require.Equal(t, "object", classifyAll("1", "True").String())
	require.Equal(t, "object", classifyAll("1", "x").String())
}

func TestPromoteIsOrderIndependent(t *testing.T) {
	obs := []Dtype{
		{Kind: Empty, HasNA: true}, Int64Type, Float64Type, BoolType, DatetimeType, ObjectType,
		{Kind: Int64, HasNA: true}, {Kind: Datetime, HasNA: true},
	}
	for _, a := range obs {
		for _, b := range obs {
			require.Equal(t, Promote(a, b), Promote(b, a))
			for _, c := range obs {
				require.Equal(t, Promote(Promote(a, b), c), Promote(a, Promote(b, c)))
			}
		}
	}
}

func TestReconcileIntAndFloatChunks(t *testing.T) {
	// chunk 1 saw only integers, chunk 2 saw a missing value in the same column
	chunk1 := []Dtype{classifyAll("1", "2"), classifyAll("a")}
	chunk2 := []Dtype{classifyAll("3", ""), classifyAll("b")}

	out, err := Reconcile([][]Dtype{chunk1, chunk2})
	require.NoError(t, err)
	require.Equal(t, Float64, out[0].Kind)
	require.Equal(t, Object, out[1].Kind)

	reversed, err := Reconcile([][]Dtype{chunk2, chunk1})
	require.NoError(t, err)
	require.Equal(t, out, reversed)
}

func TestReconcileEmptyChunkKeepsDatetime(t *testing.T) {
	empty := Classify("", false, false, true, na)
	dates := Classify("2020-01-01", false, false, true, na)
	out, err := Reconcile([][]Dtype{{empty}, {dates}})
	require.NoError(t, err)
	require.Equal(t, Datetime, out[0].Kind)
}

func TestReconcileLengthMismatch(t *testing.T) {
	_, err := Reconcile([][]Dtype{{Int64Type}, {Int64Type, Int64Type}})
	require.ErrorIs(t, err, ErrDtypeVectorLength)
}

func TestConvert(t *testing.T) {
	v, err := Convert("3", false, false, Float64Type, na)
	require.NoError(t, err)
	require.Equal(t, float64(3), v)

	v, err = Convert("", false, false, Float64Type, na)
	require.NoError(t, err)
	require.True(t, math.IsNaN(v.(float64)))

	v, err = Convert("2022-01-24", false, false, DatetimeType, na)
	require.NoError(t, err)
	require.True(t, v.(time.Time).Equal(time.Date(2022, 1, 24, 0, 0, 0, 0, time.UTC)))

	v, err = Convert("NA", false, false, ObjectType, na)
	require.NoError(t, err)
	require.Nil(t, v)

	_, err = Convert("x", false, false, Int64Type, na)
	require.Error(t, err)

	v, err = Convert(" 7 ", false, false, Int64Type, na)
	require.NoError(t, err)
	require.Equal(t, int64(7), v)

	v, err = Convert(" 2.5", false, false, Float64Type, na)
	require.NoError(t, err)
	require.Equal(t, 2.5, v)

	_, err = Convert("0x1p-2", false, false, Float64Type, na)
	require.Error(t, err)
}

package recognize

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"AB3.C D", "AB3CD"},
		{"  x7 q2 ", "x7q2"},
		{"@bc", "abc"},
		{"ca$h", "cash"},
		{"a|b!c", "albic"},
		{"a,b;c-", "abc"},
		{"", ""},
		{"...", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Normalize(c.raw), "raw=%q", c.raw)
	}
}

func TestStaticReplaysScript(t *testing.T) {
	r := NewStatic("first", "second")
	ctx := context.Background()
	img := image.NewGray(image.Rect(0, 0, 1, 1))

	for _, want := range []string{"first", "second", "second"} {
		got, err := r.Recognize(ctx, img)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestStaticEmpty(t *testing.T) {
	r := NewStatic()
	got, err := r.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	require.Equal(t, "", got)
}

package exifx

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureTime(t *testing.T) {
	cases := []struct {
		name string
		in   Capture
		want time.Time
	}{
		{"plain", Capture{DateTimeOriginal: "2024:05:01 10:00:00"}, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"dashes", Capture{DateTimeOriginal: "2024-05-01 10:00:00"}, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"millis", Capture{DateTimeOriginal: "2024:05:01 10:00:00", SubSecTimeOriginal: "123"}, time.Date(2024, 5, 1, 10, 0, 0, 123*int(time.Millisecond), time.UTC)},
		{"four digits are millis", Capture{DateTimeOriginal: "2024:05:01 10:00:00", SubSecTimeOriginal: "1234"}, time.Date(2024, 5, 1, 10, 0, 1, 234*int(time.Millisecond), time.UTC)},
		{"micros", Capture{DateTimeOriginal: "2024:05:01 10:00:00", SubSecTimeOriginal: "123456"}, time.Date(2024, 5, 1, 10, 0, 0, 123456*int(time.Microsecond), time.UTC)},
		{"date only", Capture{DateTimeOriginal: "2024:05:01"}, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.in.Time()
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %v got %v", tc.want, got)
		})
	}
}

func TestCaptureTime_Invalid(t *testing.T) {
	for _, c := range []Capture{
		{},
		{DateTimeOriginal: "0000:00:00 00:00:00"},
		{DateTimeOriginal: "yesterday"},
		{DateTimeOriginal: "2024:05:01 10:00:00", SubSecTimeOriginal: "abc"},
	} {
		_, err := c.Time()
		assert.True(t, errors.Is(err, ErrNoDate), "capture %+v: %v", c, err)
	}
}

func TestFileReader_NoExif(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plain.jpg")
	require.NoError(t, os.WriteFile(p, []byte("not an image"), 0o644))

	_, err := FileReader{}.ReadCapture(p)
	assert.True(t, errors.Is(err, ErrNoDate), "err=%v", err)
}

func TestFileReader_MissingFile(t *testing.T) {
	_, err := FileReader{}.ReadCapture(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoDate))
}

func TestCaptureHasSubSec(t *testing.T) {
	assert.True(t, Capture{SubSecTimeOriginal: "120"}.HasSubSec())
	assert.False(t, Capture{SubSecTimeOriginal: "  "}.HasSubSec())
	assert.False(t, Capture{}.HasSubSec())
}

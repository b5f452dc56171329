package timeutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp(t *testing.T) {
	before := time.Now().UnixMilli()
	ts := Timestamp()
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, after)
}

func TestFormat(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 20, 30, 0, time.Local)

	assert.Equal(t, "2024-03-01 10:20:30", Format(ts, ""))
	assert.Equal(t, "2024/03/01", Format(ts, "2006/01/02"))
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Elapsed(), 10*time.Millisecond)

	timer.Reset()
	assert.Less(t, timer.Elapsed(), 10*time.Millisecond)
}

func TestScopeTimer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	func() {
		defer ScopeTimer(logger, "rebuild")()
	}()

	assert.Contains(t, buf.String(), "scope=rebuild")
	assert.Contains(t, buf.String(), "took=")
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "1h30m", want: 90 * time.Minute},
		{in: "250ms", want: 250 * time.Millisecond},
		{in: "2d", want: 48 * time.Hour},
		{in: "1d2h3m4s", want: 26*time.Hour + 3*time.Minute + 4*time.Second},
		{in: "", wantErr: true},
		{in: "soon", wantErr: true},
		{in: "1dxyz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDuration)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationJSON(t *testing.T) {
	var cfg struct {
		TTL     Duration `json:"ttl"`
		Timeout Duration `json:"timeout"`
	}

	err := json.Unmarshal([]byte(`{"ttl":"7d","timeout":1000000}`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.TTL.Std())
	assert.Equal(t, time.Millisecond, cfg.Timeout.Std())

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ttl":"168h0m0s","timeout":"1ms"}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"ttl":true}`), &cfg))
}

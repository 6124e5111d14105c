package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelect_Presets(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"5m", Minute},
		{"15m", Minute},
		{"30m", Minute},
		{"1h", Minute},
		{"3h", Minute},
		{"4h", Minute},
		{"6h", Minute},
		{"12h", Hour},
		{"24h", Hour},
		{"7d", Hour},
		{"30d", Day},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.token, time.Time{}, time.Time{}))
		})
	}
}

func TestSelect_Unknown(t *testing.T) {
	assert.Equal(t, Hour, Select("bogus", time.Time{}, time.Time{}))
	assert.Equal(t, Hour, Select("", time.Time{}, time.Time{}))
}

func TestSelect_Custom(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		span time.Duration
		want string
	}{
		{"1h", time.Hour, Minute},
		{"exactly 6h", 6 * time.Hour, Minute},
		{"10h", 10 * time.Hour, Hour},
		{"exactly 48h", 48 * time.Hour, Hour},
		{"72h", 72 * time.Hour, Day},
		{"7d", 7 * 24 * time.Hour, Day},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select("custom", base, base.Add(tt.span)))
		})
	}
}

func TestSelect_CustomWithMissingBound(t *testing.T) {
	now := time.Now()
	assert.Equal(t, Default, Select("custom", time.Time{}, now))
	assert.Equal(t, Default, Select("custom", now, time.Time{}))
}

func TestSelect_CustomAndPresetTablesStayDistinct(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Hour, Select("7d", time.Time{}, time.Time{}))
	assert.Equal(t, Day, Select("custom", base, base.Add(7*24*time.Hour)))
}

func TestIsPreset(t *testing.T) {
	for _, p := range Presets() {
		assert.True(t, IsPreset(p), p)
	}
	assert.False(t, IsPreset("custom"))
	assert.False(t, IsPreset("2h"))
}

package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Point
		want  float64
		delta float64
	}{
		{"same point", Point{39.9042, 116.4074}, Point{39.9042, 116.4074}, 0, 1e-9},
		// 北京天安门 -> 上海人民广场，约 1067km
		{"beijing-shanghai", Point{39.9042, 116.4074}, Point{31.2304, 121.4737}, 1067000, 5000},
		{"one degree latitude", Point{0, 0}, Point{1, 0}, 111195, 1},
		{"antipodal", Point{0, 0}, Point{0, 180}, EarthRadius * 3.141592653589793, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), tt.delta)
			assert.InDelta(t, Distance(tt.a, tt.b), Distance(tt.b, tt.a), 1e-6, "对称")
		})
	}
}

func TestWithinBoundaryInclusive(t *testing.T) {
	center := Point{31.2304, 121.4737}
	at := Offset(center, 200)
	d := Distance(center, at)
	assert.InDelta(t, 200, d, 0.01)

	assert.True(t, Within(d, d), "正好在半径上有效")
	assert.False(t, Within(d+1, d), "超出 1 米无效")
	assert.True(t, Within(200, 200))
	assert.False(t, Within(201, 200))
}

func TestLate(t *testing.T) {
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	threshold := 15 * time.Minute

	assert.False(t, Late(start.Add(-10*time.Minute), start, threshold))
	assert.False(t, Late(start.Add(threshold), start, threshold), "恰好在阈值上不算迟到")
	assert.True(t, Late(start.Add(threshold+time.Second), start, threshold))
}

func TestCheck(t *testing.T) {
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	center := Point{22.5431, 114.0579}

	r := Check(center, Offset(center, 50), 100, start.Add(20*time.Minute), start, 15*time.Minute)
	assert.True(t, r.Valid)
	assert.True(t, r.Late)
	assert.InDelta(t, 50, r.Distance, 0.01)

	r = Check(center, Offset(center, 150), 100, start, start, 15*time.Minute)
	assert.False(t, r.Valid)
	assert.False(t, r.Late)
}

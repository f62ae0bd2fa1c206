// Package geo 签到地理围栏计算
package geo

import (
	"math"
	"time"
)

// EarthRadius 地球平均半径（米）
const EarthRadius = 6371000.0

type Point struct {
	Latitude  float64
	Longitude float64
}

// Distance 两点间的大圆距离（haversine），单位米
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Within 边界包含在内
func Within(distance, radius float64) bool {
	return distance <= radius
}

// Late 晚于 start+threshold 视为迟到
func Late(now, start time.Time, threshold time.Duration) bool {
	return now.After(start.Add(threshold))
}

// Result 一次签到位置与时间的判定结果
type Result struct {
	Distance float64
	Valid    bool
	Late     bool
}

func Check(center, at Point, radius float64, now, start time.Time, lateThreshold time.Duration) Result {
	d := Distance(center, at)
	return Result{
		Distance: d,
		Valid:    Within(d, radius),
		Late:     Late(now, start, lateThreshold),
	}
}

// Offset 从 p 沿正北方向移动 meters 米后的点，测试和数据准备使用
func Offset(p Point, meters float64) Point {
	return Point{
		Latitude:  p.Latitude + meters/EarthRadius*180/math.Pi,
		Longitude: p.Longitude,
	}
}

package simulator

import (
	"math"
	"sort"
)

// mwToDBm переводит мощность из мВт в дБм.
func mwToDBm(mw float64) float64 {
	return 10 * math.Log10(mw)
}

// lossDB - вносимые потери на детекторе det для длины волны w.
func (p *Profile) lossDB(det int32, w float64) float64 {
	loss := p.InsertionLossDB
	for _, f := range p.Features {
		if f.Detector != det {
			continue
		}
		x := (w - f.Center) / (f.WidthNm / 2)
		loss += f.DepthDB / (1 + x*x)
	}
	return loss
}

// syncGrid строит длины волн синхронизированных отсчетов: шаг в половину
// разрешения и детерминированный разброс, меньший шага.
func syncGrid(minNm, maxNm, stepNm float64) []float64 {
	half := stepNm / 2
	n := int(math.Floor((maxNm-minNm)/half+1e-9)) + 1
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		w := minNm + float64(i)*half
		if i > 0 && i < n-1 {
			w += 0.05 * half * math.Sin(float64(i)*0.7)
		}
		out = append(out, w)
	}
	return out
}

// uniformGrid - равномерная сетка min + k*step, k = 0..n-1.
func uniformGrid(minNm, maxNm, stepNm float64) []float64 {
	n := int(math.Floor((maxNm-minNm)/stepNm+1e-9)) + 1
	out := make([]float64, n)
	for k := range out {
		out[k] = minNm + float64(k)*stepNm
	}
	return out
}

// interpolate - линейная интерполяция ys(xs) в точке x. xs должен быть
// отсортирован; за пределами диапазона берется крайнее значение.
func interpolate(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}
	i := sort.SearchFloat64s(xs, x)
	x0, x1 := xs[i-1], xs[i]
	if x1 == x0 {
		return ys[i]
	}
	t := (x - x0) / (x1 - x0)
	return ys[i-1] + t*(ys[i]-ys[i-1])
}

// resample переносит ряд ys(xs) на сетку grid.
func resample(xs, ys, grid []float64) []float64 {
	out := make([]float64, len(grid))
	for k, g := range grid {
		out[k] = interpolate(xs, ys, g)
	}
	return out
}

// linesInRange возвращает опорные линии внутри [minNm, maxNm] по возрастанию.
func linesInRange(lines []float64, minNm, maxNm float64) []float64 {
	out := make([]float64, 0, len(lines))
	for _, l := range lines {
		if l >= minNm && l <= maxNm {
			out = append(out, l)
		}
	}
	sort.Float64s(out)
	return out
}

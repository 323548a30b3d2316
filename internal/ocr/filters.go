package ocr

import (
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"
)

// All filters operate on *image.Gray anchored at the origin.

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), src, b.Min, draw.Src)
	return g
}

func scale(g *image.Gray, factor int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w*factor, h*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), g, g.Bounds(), draw.Src, nil)
	return dst
}

// meanStd returns the mean and population standard deviation of intensities.
func meanStd(g *image.Gray) (float64, float64) {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	n := float64(w * h)
	if n == 0 {
		return 0, 0
	}
	var sum, sq float64
	for y := range h {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for _, p := range row {
			v := float64(p)
			sum += v
			sq += v * v
		}
	}
	mean := sum / n
	variance := sq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range k {
		x := float64(i - half)
		k[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func gaussianBlur(g *image.Gray, size int) *image.Gray {
	k := gaussianKernel(size)
	half := size / 2
	w, h := g.Rect.Dx(), g.Rect.Dy()
	tmp := make([]float64, w*h)
	for y := range h {
		row := g.Pix[y*g.Stride:]
		for x := range w {
			var acc float64
			for i, kv := range k {
				acc += kv * float64(row[clampInt(x+i-half, 0, w-1)])
			}
			tmp[y*w+x] = acc
		}
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			var acc float64
			for i, kv := range k {
				acc += kv * tmp[clampInt(y+i-half, 0, h-1)*w+x]
			}
			out.Pix[y*out.Stride+x] = clampByte(acc)
		}
	}
	return out
}

// otsu returns the threshold that maximizes between-class variance.
func otsu(g *image.Gray) uint8 {
	var hist [256]int
	w, h := g.Rect.Dx(), g.Rect.Dy()
	for y := range h {
		for _, p := range g.Pix[y*g.Stride : y*g.Stride+w] {
			hist[p]++
		}
	}
	total := w * h
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}
	var sumB, best float64
	var wB int
	var thresh uint8
	for t := range 256 {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sumAll - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			thresh = uint8(t)
		}
	}
	return thresh
}

// threshold maps pixels above t to white and the rest to black.
func threshold(g *image.Gray, t uint8) *image.Gray {
	out := image.NewGray(g.Rect)
	w, h := g.Rect.Dx(), g.Rect.Dy()
	for y := range h {
		for x := range w {
			if g.Pix[y*g.Stride+x] > t {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// adaptiveThreshold compares each pixel with its Gaussian-weighted
// neighbourhood mean minus c.
func adaptiveThreshold(g *image.Gray, block int, c float64) *image.Gray {
	local := gaussianBlur(g, block)
	out := image.NewGray(g.Rect)
	w, h := g.Rect.Dx(), g.Rect.Dy()
	for y := range h {
		for x := range w {
			if float64(g.Pix[y*g.Stride+x]) > float64(local.Pix[y*local.Stride+x])-c {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// morph applies a square max (dilate) or min (erode) filter.
func morph(g *image.Gray, k, iterations int, dilate bool) *image.Gray {
	lo := -(k / 2)
	hi := k - 1 - k/2
	cur := g
	for range iterations {
		w, h := cur.Rect.Dx(), cur.Rect.Dy()
		out := image.NewGray(cur.Rect)
		for y := range h {
			for x := range w {
				var v uint8
				if !dilate {
					v = 255
				}
				for dy := lo; dy <= hi; dy++ {
					yy := clampInt(y+dy, 0, h-1)
					for dx := lo; dx <= hi; dx++ {
						p := cur.Pix[yy*cur.Stride+clampInt(x+dx, 0, w-1)]
						if dilate && p > v || !dilate && p < v {
							v = p
						}
					}
				}
				out.Pix[y*out.Stride+x] = v
			}
		}
		cur = out
	}
	return cur
}

func dilate(g *image.Gray, k, iterations int) *image.Gray { return morph(g, k, iterations, true) }
func erode(g *image.Gray, k, iterations int) *image.Gray  { return morph(g, k, iterations, false) }

// open removes specks smaller than the kernel.
func open(g *image.Gray, k int) *image.Gray { return dilate(erode(g, k, 1), k, 1) }

func median3(g *image.Gray) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	out := image.NewGray(g.Rect)
	var win [9]int
	for y := range h {
		for x := range w {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					win[n] = int(g.Pix[yy*g.Stride+clampInt(x+dx, 0, w-1)])
					n++
				}
			}
			s := win[:]
			sort.Ints(s)
			out.Pix[y*out.Stride+x] = uint8(s[4])
		}
	}
	return out
}

// clahe is contrast-limited adaptive histogram equalization over a
// tiles x tiles grid with bilinear blending between tile mappings.
func clahe(g *image.Gray, clipLimit float64, tiles int) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	tw := max(1, (w+tiles-1)/tiles)
	th := max(1, (h+tiles-1)/tiles)

	luts := make([][256]uint8, tiles*tiles)
	for ty := range tiles {
		for tx := range tiles {
			x0, y0 := tx*tw, ty*th
			x1, y1 := min(x0+tw, w), min(y0+th, h)
			lut := &luts[ty*tiles+tx]
			if x0 >= x1 || y0 >= y1 {
				for i := range lut {
					lut[i] = uint8(i)
				}
				continue
			}
			var hist [256]int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[g.Pix[y*g.Stride+x]]++
				}
			}
			n := (x1 - x0) * (y1 - y0)
			limit := max(1, int(clipLimit*float64(n)/256))
			excess := 0
			for i := range hist {
				if hist[i] > limit {
					excess += hist[i] - limit
					hist[i] = limit
				}
			}
			bonus, rest := excess/256, excess%256
			for i := range hist {
				hist[i] += bonus
				if i < rest {
					hist[i]++
				}
			}
			cdf := 0
			for i := range hist {
				cdf += hist[i]
				lut[i] = clampByte(float64(cdf) * 255 / float64(n))
			}
		}
	}

	out := image.NewGray(g.Rect)
	for y := range h {
		fy := (float64(y)+0.5)/float64(th) - 0.5
		ya := int(math.Floor(fy))
		wy := fy - float64(ya)
		y0, y1 := clampInt(ya, 0, tiles-1), clampInt(ya+1, 0, tiles-1)
		for x := range w {
			fx := (float64(x)+0.5)/float64(tw) - 0.5
			xa := int(math.Floor(fx))
			wx := fx - float64(xa)
			x0, x1 := clampInt(xa, 0, tiles-1), clampInt(xa+1, 0, tiles-1)
			p := g.Pix[y*g.Stride+x]
			top := (1-wx)*float64(luts[y0*tiles+x0][p]) + wx*float64(luts[y0*tiles+x1][p])
			bot := (1-wx)*float64(luts[y1*tiles+x0][p]) + wx*float64(luts[y1*tiles+x1][p])
			out.Pix[y*out.Stride+x] = clampByte((1-wy)*top + wy*bot)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

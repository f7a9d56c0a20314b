package soft

import "github.com/chewxy/math32"

// hash3 is the sin-fract hash common in shader code, so the CPU kernels and
// the GLSL sources produce the same field.
func hash3(x, y, z float32) float32 {
	return fract(math32.Sin(x*127.1+y*311.7+z*74.7) * 43758.5453)
}

func fract(v float32) float32 {
	return v - math32.Floor(v)
}

func smooth(t float32) float32 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// valueNoise3 returns trilinearly interpolated lattice noise in [0, 1].
func valueNoise3(x, y, z float32) float32 {
	ix, iy, iz := math32.Floor(x), math32.Floor(y), math32.Floor(z)
	fx, fy, fz := smooth(x-ix), smooth(y-iy), smooth(z-iz)

	c000 := hash3(ix, iy, iz)
	c100 := hash3(ix+1, iy, iz)
	c010 := hash3(ix, iy+1, iz)
	c110 := hash3(ix+1, iy+1, iz)
	c001 := hash3(ix, iy, iz+1)
	c101 := hash3(ix+1, iy, iz+1)
	c011 := hash3(ix, iy+1, iz+1)
	c111 := hash3(ix+1, iy+1, iz+1)

	x00 := lerp(c000, c100, fx)
	x10 := lerp(c010, c110, fx)
	x01 := lerp(c001, c101, fx)
	x11 := lerp(c011, c111, fx)
	return lerp(lerp(x00, x10, fy), lerp(x01, x11, fy), fz)
}

// fbm3 sums octaves of value noise, halving amplitude and doubling
// frequency each time. The result is normalized back to [0, 1].
func fbm3(x, y, z float32, octaves int) float32 {
	var sum, norm float32
	amp := float32(0.5)
	for range octaves {
		sum += amp * valueNoise3(x, y, z)
		norm += amp
		x, y, z = x*2, y*2, z*2
		amp *= 0.5
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

package soft

// rampSample blends three colour stops at t = 0, 0.5 and 1.
func rampSample(c1, c2, c3 [4]float32, t float32) [4]float32 {
	t = clamp01(t)
	if t < 0.5 {
		return lerp4(c1, c2, t*2)
	}
	return lerp4(c2, c3, (t-0.5)*2)
}

func lerp4(a, b [4]float32, t float32) [4]float32 {
	return [4]float32{
		lerp(a[0], b[0], t),
		lerp(a[1], b[1], t),
		lerp(a[2], b[2], t),
		lerp(a[3], b[3], t),
	}
}

// toRGBA converts linear 0..1 channels to 8-bit, clamping out-of-range
// values.
func toRGBA(c [4]float32) Color {
	return Color{
		R: uint8(clamp01(c[0])*255 + 0.5),
		G: uint8(clamp01(c[1])*255 + 0.5),
		B: uint8(clamp01(c[2])*255 + 0.5),
		A: uint8(clamp01(c[3])*255 + 0.5),
	}
}

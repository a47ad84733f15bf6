package fixedpoint

// FP2 is a deterministic 2D vector over FP components.
type FP2 struct {
	X, Y FP
}

// FP3 is a deterministic 3D vector over FP components.
type FP3 struct {
	X, Y, Z FP
}

var (
	FP2Zero = FP2{}
	FP3Zero = FP3{}
)

func NewFP2(x, y FP) FP2    { return FP2{X: x, Y: y} }
func NewFP3(x, y, z FP) FP3 { return FP3{X: x, Y: y, Z: z} }

// --- FP2 ---

func (a FP2) Add(b FP2) FP2 { return FP2{Add(a.X, b.X), Add(a.Y, b.Y)} }
func (a FP2) Sub(b FP2) FP2 { return FP2{Sub(a.X, b.X), Sub(a.Y, b.Y)} }
func (a FP2) Neg() FP2      { return FP2{Neg(a.X), Neg(a.Y)} }
func (a FP2) Scale(s FP) FP2 {
	return FP2{Mul(a.X, s), Mul(a.Y, s)}
}

func (a FP2) ScaleDiv(s FP) (FP2, error) {
	x, err := Div(a.X, s)
	if err != nil {
		return FP2{}, err
	}
	y, err := Div(a.Y, s)
	if err != nil {
		return FP2{}, err
	}
	return FP2{x, y}, nil
}

// Dot computes the sum of products in the widened 128-bit domain before the
// 32.32 renormalization shift, so an intermediate overflow of x*x or y*y
// cannot corrupt the low bits of the final sum.
func (a FP2) Dot(b FP2) FP {
	return sumProducts2(a.X, b.X, a.Y, b.Y)
}

// Cross returns the 2D scalar cross product (z-component of the 3D cross).
func (a FP2) Cross(b FP2) FP {
	return Sub(Mul(a.X, b.Y), Mul(a.Y, b.X))
}

func (a FP2) SqrMagnitude() FP { return a.Dot(a) }

func (a FP2) Magnitude() FP {
	m, _ := Sqrt(a.SqrMagnitude())
	return m
}

func (a FP2) Normalized() FP2 {
	mag := a.Magnitude()
	if mag.Raw == 0 {
		return FP2Zero
	}
	v, err := a.ScaleDiv(mag)
	if err != nil {
		return FP2Zero
	}
	return v
}

func (a FP2) Distance(b FP2) FP {
	return a.Sub(b).Magnitude()
}

func (a FP2) Lerp(b FP2, t FP) FP2 {
	return FP2{lerpFP(a.X, b.X, t), lerpFP(a.Y, b.Y, t)}
}

// MoveTowards moves a toward b by at most maxDelta, never overshooting.
func (a FP2) MoveTowards(b FP2, maxDelta FP) FP2 {
	delta := b.Sub(a)
	dist := delta.Magnitude()
	if dist.Raw == 0 || Cmp(dist, maxDelta) <= 0 {
		return b
	}
	step, err := delta.ScaleDiv(dist)
	if err != nil {
		return a
	}
	return a.Add(step.Scale(maxDelta))
}

func (a FP2) ClampMagnitude(maxLen FP) FP2 {
	sq := a.SqrMagnitude()
	maxSq := Mul(maxLen, maxLen)
	if Cmp(sq, maxSq) <= 0 {
		return a
	}
	return a.Normalized().Scale(maxLen)
}

func (a FP2) Reflect(normal FP2) FP2 {
	d := a.Dot(normal)
	two := FromInt(2)
	return a.Sub(normal.Scale(Mul(two, d)))
}

func (a FP2) Project(onto FP2) FP2 {
	denom := onto.SqrMagnitude()
	if denom.Raw == 0 {
		return FP2Zero
	}
	num := a.Dot(onto)
	scale, err := Div(num, denom)
	if err != nil {
		return FP2Zero
	}
	return onto.Scale(scale)
}

func (a FP2) Angle(b FP2) FP {
	return Atan2(a.Cross(b), a.Dot(b))
}

// --- FP3 ---

func (a FP3) Add(b FP3) FP3 { return FP3{Add(a.X, b.X), Add(a.Y, b.Y), Add(a.Z, b.Z)} }
func (a FP3) Sub(b FP3) FP3 { return FP3{Sub(a.X, b.X), Sub(a.Y, b.Y), Sub(a.Z, b.Z)} }
func (a FP3) Neg() FP3      { return FP3{Neg(a.X), Neg(a.Y), Neg(a.Z)} }
func (a FP3) Scale(s FP) FP3 {
	return FP3{Mul(a.X, s), Mul(a.Y, s), Mul(a.Z, s)}
}

func (a FP3) ScaleDiv(s FP) (FP3, error) {
	x, err := Div(a.X, s)
	if err != nil {
		return FP3{}, err
	}
	y, err := Div(a.Y, s)
	if err != nil {
		return FP3{}, err
	}
	z, err := Div(a.Z, s)
	if err != nil {
		return FP3{}, err
	}
	return FP3{x, y, z}, nil
}

// Dot sums products in the widened domain before renormalization; see FP2.Dot.
func (a FP3) Dot(b FP3) FP {
	return sumProducts3(a.X, b.X, a.Y, b.Y, a.Z, b.Z)
}

func (a FP3) Cross(b FP3) FP3 {
	return FP3{
		X: Sub(Mul(a.Y, b.Z), Mul(a.Z, b.Y)),
		Y: Sub(Mul(a.Z, b.X), Mul(a.X, b.Z)),
		Z: Sub(Mul(a.X, b.Y), Mul(a.Y, b.X)),
	}
}

func (a FP3) SqrMagnitude() FP { return a.Dot(a) }

func (a FP3) Magnitude() FP {
	m, _ := Sqrt(a.SqrMagnitude())
	return m
}

func (a FP3) Normalized() FP3 {
	mag := a.Magnitude()
	if mag.Raw == 0 {
		return FP3Zero
	}
	v, err := a.ScaleDiv(mag)
	if err != nil {
		return FP3Zero
	}
	return v
}

func (a FP3) Distance(b FP3) FP {
	return a.Sub(b).Magnitude()
}

func (a FP3) Lerp(b FP3, t FP) FP3 {
	return FP3{lerpFP(a.X, b.X, t), lerpFP(a.Y, b.Y, t), lerpFP(a.Z, b.Z, t)}
}

func (a FP3) MoveTowards(b FP3, maxDelta FP) FP3 {
	delta := b.Sub(a)
	dist := delta.Magnitude()
	if dist.Raw == 0 || Cmp(dist, maxDelta) <= 0 {
		return b
	}
	step, err := delta.ScaleDiv(dist)
	if err != nil {
		return a
	}
	return a.Add(step.Scale(maxDelta))
}

func (a FP3) ClampMagnitude(maxLen FP) FP3 {
	sq := a.SqrMagnitude()
	maxSq := Mul(maxLen, maxLen)
	if Cmp(sq, maxSq) <= 0 {
		return a
	}
	return a.Normalized().Scale(maxLen)
}

func (a FP3) Reflect(normal FP3) FP3 {
	d := a.Dot(normal)
	two := FromInt(2)
	return a.Sub(normal.Scale(Mul(two, d)))
}

func (a FP3) Project(onto FP3) FP3 {
	denom := onto.SqrMagnitude()
	if denom.Raw == 0 {
		return FP3Zero
	}
	num := a.Dot(onto)
	scale, err := Div(num, denom)
	if err != nil {
		return FP3Zero
	}
	return onto.Scale(scale)
}

func (a FP3) Angle(b FP3) FP {
	cross := a.Cross(b)
	return Atan2(cross.Magnitude(), a.Dot(b))
}

func lerpFP(a, b, t FP) FP {
	return Add(a, Mul(Sub(b, a), t))
}

// sumProducts2/3 compute dot products by widening each product to a 128-bit
// sign+magnitude accumulator before summing, then renormalizing from 64.64
// to 32.32 once at the end, so an intermediate overflow of a single x*x term
// cannot corrupt the low bits of the total.
func sumProducts2(ax, bx, ay, by FP) FP {
	h1, l1, n1 := productMagnitude128(ax, bx)
	h2, l2, n2 := productMagnitude128(ay, by)
	hi, lo, neg, overflow := addSignedMagnitude128(h1, l1, n1, h2, l2, n2)
	return foldDotSum(hi, lo, neg, overflow)
}

func sumProducts3(ax, bx, ay, by, az, bz FP) FP {
	h1, l1, n1 := productMagnitude128(ax, bx)
	h2, l2, n2 := productMagnitude128(ay, by)
	h3, l3, n3 := productMagnitude128(az, bz)
	hi, lo, neg, overflow1 := addSignedMagnitude128(h1, l1, n1, h2, l2, n2)
	hi, lo, neg, overflow2 := addSignedMagnitude128(hi, lo, neg, h3, l3, n3)
	return foldDotSum(hi, lo, neg, overflow1 || overflow2)
}

// foldDotSum renormalizes a sign+magnitude 128-bit accumulator (64.64 scale,
// products already widened) to a saturated 32.32 FP. Keeping sign and
// magnitude separate through the whole sum, rather than round-tripping
// through a two's-complement encoding, means a same-signed sum that sets
// what would be the 128-bit sign bit is still read as the large positive (or
// negative) magnitude it actually is, not misread as negative; saturate128
// already saturates correctly once hi32 no longer fits in the low word.
func foldDotSum(hi, lo uint64, neg, overflow bool) FP {
	if overflow {
		if neg {
			return MinFP
		}
		return MaxFP
	}
	hi32 := hi >> shift
	lo32 := (lo >> shift) | (hi << (64 - shift))
	return FP{Raw: saturate128(hi32, lo32, neg)}
}

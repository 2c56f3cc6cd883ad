package IceShelf

import "math"

/*
Units are meters, years and megapascals.
*/
const (
	Year          = 365.25 * 24 * 3600
	Gravity       = 9.81 * Year * Year             // m / a^2
	RhoIce        = 917 * 1.e-6 / (Year * Year)  // MPa a^2 / m^2
	RhoWater      = 1024 * 1.e-6 / (Year * Year) // MPa a^2 / m^2
	IdealGas      = 8.3144621                    // J / mol K
	GlenN         = 3.
	TransitionT   = 263.15                   // K
	A0Cold        = 3.985e-13 * Year * 1.e18 // MPa^-3 a^-1
	A0Warm        = 1.916e3 * Year * 1.e18
	QCold         = 60.e3 // J / mol
	QWarm         = 139.e3
	StrainRateMin = 1.e-5 // 1 / a
)

// Buoyancy is the fraction of a floating column lying above the waterline
func Buoyancy() float64 { return 1 - RhoIce/RhoWater }

func activation(T float64) (A0, Q float64) {
	if T < TransitionT {
		return A0Cold, QCold
	}
	return A0Warm, QWarm
}

// RateFactor is the Arrhenius rate factor A(T) of Glen's flow law
func RateFactor(T float64) float64 {
	A0, Q := activation(T)
	return A0 * math.Exp(-Q/(IdealGas*T))
}

// Rigidity is B(T) = A(T)^(-1/n)
func Rigidity(T float64) float64 {
	return math.Pow(RateFactor(T), -1/GlenN)
}

// RigidityDerivative is dB/dT
func RigidityDerivative(T float64) float64 {
	_, Q := activation(T)
	return -Rigidity(T) * Q / (GlenN * IdealGas * T * T)
}

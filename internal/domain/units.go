package domain

// MphToMS converts miles per hour to metres per second.
func MphToMS(v float64) float64 { return v * 0.44704 }

// FtToM converts feet to metres.
func FtToM(v float64) float64 { return v * 0.3048 }

// KToC converts Kelvin to degrees Celsius.
func KToC(v float64) float64 { return v - 273.15 }

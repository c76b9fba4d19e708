package timeline

import "math"

// Volume values are user-facing 0-100 sliders mapped onto a piecewise-linear
// decibel scale: 50 is unity gain (0 dB), 0 is -60 dB, 100 is +12 dB. The
// mapping is exactly invertible so the UI can round-trip dB values.
const (
	UnityVolume = 50.0
	MinVolumeDB = -60.0
	MaxVolumeDB = 12.0
)

// VolumeToDB maps a 0-100 volume value to decibels.
func VolumeToDB(volume float64) float64 {
	v := clampVolume(volume)
	if v <= UnityVolume {
		return (v/UnityVolume)*(-MinVolumeDB) + MinVolumeDB
	}
	return ((v - UnityVolume) / UnityVolume) * MaxVolumeDB
}

// DBToVolume is the algebraic inverse of VolumeToDB.
func DBToVolume(db float64) float64 {
	if db <= 0 {
		if db < MinVolumeDB {
			db = MinVolumeDB
		}
		return (db - MinVolumeDB) / (-MinVolumeDB) * UnityVolume
	}
	if db > MaxVolumeDB {
		db = MaxVolumeDB
	}
	return UnityVolume + db/MaxVolumeDB*UnityVolume
}

// LinearGain converts a 0-100 volume value to the linear gain factor applied
// by the render graph: 10^(dB/20).
func LinearGain(volume float64) float64 {
	return math.Pow(10, VolumeToDB(volume)/20)
}

func clampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}

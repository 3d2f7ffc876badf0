// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

// DiveIDRange is the range of dive identifiers stored on the device
type DiveIDRange struct {
	First uint16
	Last  uint16
}

// IDs expands the range into ascending dive identifiers, First and Last
// included. An inverted range means the device holds no dives.
func (r DiveIDRange) IDs() []uint16 {
	if r.Last < r.First {
		return []uint16{}
	}
	ids := make([]uint16, 0, int(r.Last)-int(r.First)+1)
	for id := int(r.First); id <= int(r.Last); id++ {
		ids = append(ids, uint16(id))
	}
	return ids
}

// DiveSample is one periodic measurement taken during a dive.
// Depths are in decimeters and temperatures in tenths of a degree Celsius.
type DiveSample struct {
	VbatCV                uint16
	RuntimeS              uint32
	DepthDm               uint16
	TemperatureDc         uint16
	ActiveMixO2Percent    uint8
	ActiveMixHePercent    uint8
	SuggestedMixO2Percent uint8
	SuggestedMixHePercent uint8
	ActiveAlgorithm       uint8
	BuhlGfHigh            uint8
	BuhlGfLow             uint8
	VpmR0                 uint8
	ModeOCSCRCCRGauge     uint8
	MaxPPO2OrSetpoint     uint16
	FirstStopDepth        uint16
	FirstStopTime         uint16
	NDLOrTTS              uint16
	OTU                   uint16
	CNS                   uint16
	TissueGroupPercent    [16]uint8
	EnabledMixSensors     uint8
	SetPointMode          uint8
	TankPressure          uint8
	CompassLog            int16
	Reserved2             int16
}

// Dive is one logged dive: the header fields followed by its samples in
// retrieval order. A Dive is built once by the session and not modified
// afterwards.
type Dive struct {
	ID uint16 // identifier the dive was requested with, not part of the header

	ActiveUser          uint8
	DiveSamples         uint16
	MonotonicTimeS      uint32
	UTCStartingTimeS    uint32
	SurfacePressureMbar uint16
	LastSurfaceTimeS    uint32
	DesaturationTimeS   uint32
	DepthMax            uint16
	DecostopDepth1Dm    uint16
	DecostopDepth2Dm    uint16
	DecostopStep1Dm     uint8
	DecostopStep2Dm     uint8
	DecostopStep3Dm     uint8
	DeepStopAlg         uint8
	SafetyStopDepthDm   uint8
	SafetyStopMin       uint8
	DiveMode            DiveMode
	Water               WaterType
	AlarmsGeneral       uint8
	AlarmTime           uint16
	AlarmDepth          uint16
	BacklightLevel      uint8
	BacklightMode       uint8
	SoftwareVersion     uint32
	AlertFlag           uint8
	FreeUserSettings    uint8
	TimezoneIdx         uint8
	AvgDepth            uint16
	Dum6                uint8
	Dum7                uint8
	Dum8                uint8

	Samples []DiveSample
}

// Version returns the firmware version the dive was recorded with
func (d *Dive) Version() SoftwareVersion {
	return SoftwareVersion(d.SoftwareVersion)
}

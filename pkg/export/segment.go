// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package export

import (
	"encoding/xml"

	"github.com/Thermoquad/ixdump/pkg/ratio"
)

// SegmentVersion is the document version written on every segment
const SegmentVersion = "1.1"

// EquipmentType identifies the iX5M family in a segment header
const EquipmentType = 100

// Segment is the export document for one dive
type Segment struct {
	XMLName xml.Name      `xml:"diveSegment" json:"-" yaml:"-" cbor:"-"`
	Version string        `xml:"version,attr" json:"version" yaml:"version" cbor:"version"`
	Header  SegmentHeader `xml:"segmentHeader" json:"segmentHeader" yaml:"segmentHeader" cbor:"segmentHeader"`
	Samples []Sample      `xml:"samples>sample" json:"samples" yaml:"samples" cbor:"samples"`
}

// SegmentHeader holds the dive header fields in wire order, preceded by the
// equipment type
type SegmentHeader struct {
	EquipmentType       int    `xml:"equipmentType" json:"equipmentType" yaml:"equipmentType" cbor:"equipmentType"`
	ActiveUser          uint8  `xml:"activeUser" json:"activeUser" yaml:"activeUser" cbor:"activeUser"`
	DiveSamples         uint16 `xml:"diveSamples" json:"diveSamples" yaml:"diveSamples" cbor:"diveSamples"`
	MonotonicTimeS      uint32 `xml:"monotonicTimeS" json:"monotonicTimeS" yaml:"monotonicTimeS" cbor:"monotonicTimeS"`
	UTCStartingTimeS    uint32 `xml:"UTCStartingTimeS" json:"UTCStartingTimeS" yaml:"UTCStartingTimeS" cbor:"UTCStartingTimeS"`
	SurfacePressureMbar uint16 `xml:"surfacePressureMbar" json:"surfacePressureMbar" yaml:"surfacePressureMbar" cbor:"surfacePressureMbar"`
	LastSurfaceTimeS    int64  `xml:"lastSurfaceTimeS" json:"lastSurfaceTimeS" yaml:"lastSurfaceTimeS" cbor:"lastSurfaceTimeS"`
	DesaturationTimeS   uint32 `xml:"desaturationTimeS" json:"desaturationTimeS" yaml:"desaturationTimeS" cbor:"desaturationTimeS"`
	DepthMax            uint16 `xml:"depthMax" json:"depthMax" yaml:"depthMax" cbor:"depthMax"`
	DecostopDepth1Dm    uint16 `xml:"decostopDepth1Dm" json:"decostopDepth1Dm" yaml:"decostopDepth1Dm" cbor:"decostopDepth1Dm"`
	DecostopDepth2Dm    uint16 `xml:"decostopDepth2Dm" json:"decostopDepth2Dm" yaml:"decostopDepth2Dm" cbor:"decostopDepth2Dm"`
	DecostopStep1Dm     uint8  `xml:"decostopStep1Dm" json:"decostopStep1Dm" yaml:"decostopStep1Dm" cbor:"decostopStep1Dm"`
	DecostopStep2Dm     uint8  `xml:"decostopStep2Dm" json:"decostopStep2Dm" yaml:"decostopStep2Dm" cbor:"decostopStep2Dm"`
	DecostopStep3Dm     uint8  `xml:"decostopStep3Dm" json:"decostopStep3Dm" yaml:"decostopStep3Dm" cbor:"decostopStep3Dm"`
	DeepStopAlg         uint8  `xml:"deepStopAlg" json:"deepStopAlg" yaml:"deepStopAlg" cbor:"deepStopAlg"`
	SafetyStopDepthDm   uint8  `xml:"safetyStopDepthDm" json:"safetyStopDepthDm" yaml:"safetyStopDepthDm" cbor:"safetyStopDepthDm"`
	SafetyStopMin       uint8  `xml:"safetyStopMin" json:"safetyStopMin" yaml:"safetyStopMin" cbor:"safetyStopMin"`
	DiveMode            uint8  `xml:"diveMode" json:"diveMode" yaml:"diveMode" cbor:"diveMode"`
	Water               uint8  `xml:"water" json:"water" yaml:"water" cbor:"water"`
	AlarmsGeneral       uint8  `xml:"alarmsGeneral" json:"alarmsGeneral" yaml:"alarmsGeneral" cbor:"alarmsGeneral"`
	AlarmTime           uint16 `xml:"alarmTime" json:"alarmTime" yaml:"alarmTime" cbor:"alarmTime"`
	AlarmDepth          uint16 `xml:"alarmDepth" json:"alarmDepth" yaml:"alarmDepth" cbor:"alarmDepth"`
	BacklightLevel      uint8  `xml:"backlightLevel" json:"backlightLevel" yaml:"backlightLevel" cbor:"backlightLevel"`
	BacklightMode       uint8  `xml:"backlightMode" json:"backlightMode" yaml:"backlightMode" cbor:"backlightMode"`
	SoftwareVersion     uint32 `xml:"softwareVersion" json:"softwareVersion" yaml:"softwareVersion" cbor:"softwareVersion"`
	AlertFlag           uint8  `xml:"alertFlag" json:"alertFlag" yaml:"alertFlag" cbor:"alertFlag"`
	FreeUserSettings    uint8  `xml:"freeUserSettings" json:"freeUserSettings" yaml:"freeUserSettings" cbor:"freeUserSettings"`
	TimezoneIdx         uint8  `xml:"timezoneIdx" json:"timezoneIdx" yaml:"timezoneIdx" cbor:"timezoneIdx"`
	AvgDepth            uint16 `xml:"avgDepth" json:"avgDepth" yaml:"avgDepth" cbor:"avgDepth"`
	Dum6                uint8  `xml:"dum6" json:"dum6" yaml:"dum6" cbor:"dum6"`
	Dum7                uint8  `xml:"dum7" json:"dum7" yaml:"dum7" cbor:"dum7"`
	Dum8                uint8  `xml:"dum8" json:"dum8" yaml:"dum8" cbor:"dum8"`
}

// Sample is one dive sample. Tissue groups are flattened into numbered
// elements.
type Sample struct {
	VbatCV                uint16 `xml:"vbatCV" json:"vbatCV" yaml:"vbatCV" cbor:"vbatCV"`
	RuntimeS              uint32 `xml:"runtimeS" json:"runtimeS" yaml:"runtimeS" cbor:"runtimeS"`
	DepthDm               uint16 `xml:"depthDm" json:"depthDm" yaml:"depthDm" cbor:"depthDm"`
	TemperatureDc         uint16 `xml:"temperatureDc" json:"temperatureDc" yaml:"temperatureDc" cbor:"temperatureDc"`
	ActiveMixO2Percent    uint8  `xml:"activeMixO2Percent" json:"activeMixO2Percent" yaml:"activeMixO2Percent" cbor:"activeMixO2Percent"`
	ActiveMixHePercent    uint8  `xml:"activeMixHePercent" json:"activeMixHePercent" yaml:"activeMixHePercent" cbor:"activeMixHePercent"`
	SuggestedMixO2Percent uint8  `xml:"suggestedMixO2Percent" json:"suggestedMixO2Percent" yaml:"suggestedMixO2Percent" cbor:"suggestedMixO2Percent"`
	SuggestedMixHePercent uint8  `xml:"suggestedMixHePercent" json:"suggestedMixHePercent" yaml:"suggestedMixHePercent" cbor:"suggestedMixHePercent"`
	ActiveAlgorithm       uint8  `xml:"activeAlgorithm" json:"activeAlgorithm" yaml:"activeAlgorithm" cbor:"activeAlgorithm"`
	BuhlGfHigh            uint8  `xml:"buhlGfHigh" json:"buhlGfHigh" yaml:"buhlGfHigh" cbor:"buhlGfHigh"`
	BuhlGfLow             uint8  `xml:"buhlGfLow" json:"buhlGfLow" yaml:"buhlGfLow" cbor:"buhlGfLow"`
	VpmR0                 uint8  `xml:"vpmR0" json:"vpmR0" yaml:"vpmR0" cbor:"vpmR0"`
	ModeOCSCRCCRGauge     uint8  `xml:"modeOCSCRCCRGauge" json:"modeOCSCRCCRGauge" yaml:"modeOCSCRCCRGauge" cbor:"modeOCSCRCCRGauge"`
	MaxPPO2OrSetpoint     uint16 `xml:"maxPPO2OrSetpoint" json:"maxPPO2OrSetpoint" yaml:"maxPPO2OrSetpoint" cbor:"maxPPO2OrSetpoint"`
	FirstStopDepth        uint16 `xml:"firstStopDepth" json:"firstStopDepth" yaml:"firstStopDepth" cbor:"firstStopDepth"`
	FirstStopTime         uint16 `xml:"firstStopTime" json:"firstStopTime" yaml:"firstStopTime" cbor:"firstStopTime"`
	NDLOrTTS              uint16 `xml:"NDLOrTTS" json:"NDLOrTTS" yaml:"NDLOrTTS" cbor:"NDLOrTTS"`
	OTU                   uint16 `xml:"OTU" json:"OTU" yaml:"OTU" cbor:"OTU"`
	CNS                   uint16 `xml:"CNS" json:"CNS" yaml:"CNS" cbor:"CNS"`
	TissueGroup1Percent   uint8  `xml:"tissueGroup1Percent" json:"tissueGroup1Percent" yaml:"tissueGroup1Percent" cbor:"tissueGroup1Percent"`
	TissueGroup2Percent   uint8  `xml:"tissueGroup2Percent" json:"tissueGroup2Percent" yaml:"tissueGroup2Percent" cbor:"tissueGroup2Percent"`
	TissueGroup3Percent   uint8  `xml:"tissueGroup3Percent" json:"tissueGroup3Percent" yaml:"tissueGroup3Percent" cbor:"tissueGroup3Percent"`
	TissueGroup4Percent   uint8  `xml:"tissueGroup4Percent" json:"tissueGroup4Percent" yaml:"tissueGroup4Percent" cbor:"tissueGroup4Percent"`
	TissueGroup5Percent   uint8  `xml:"tissueGroup5Percent" json:"tissueGroup5Percent" yaml:"tissueGroup5Percent" cbor:"tissueGroup5Percent"`
	TissueGroup6Percent   uint8  `xml:"tissueGroup6Percent" json:"tissueGroup6Percent" yaml:"tissueGroup6Percent" cbor:"tissueGroup6Percent"`
	TissueGroup7Percent   uint8  `xml:"tissueGroup7Percent" json:"tissueGroup7Percent" yaml:"tissueGroup7Percent" cbor:"tissueGroup7Percent"`
	TissueGroup8Percent   uint8  `xml:"tissueGroup8Percent" json:"tissueGroup8Percent" yaml:"tissueGroup8Percent" cbor:"tissueGroup8Percent"`
	TissueGroup9Percent   uint8  `xml:"tissueGroup9Percent" json:"tissueGroup9Percent" yaml:"tissueGroup9Percent" cbor:"tissueGroup9Percent"`
	TissueGroup10Percent  uint8  `xml:"tissueGroup10Percent" json:"tissueGroup10Percent" yaml:"tissueGroup10Percent" cbor:"tissueGroup10Percent"`
	TissueGroup11Percent  uint8  `xml:"tissueGroup11Percent" json:"tissueGroup11Percent" yaml:"tissueGroup11Percent" cbor:"tissueGroup11Percent"`
	TissueGroup12Percent  uint8  `xml:"tissueGroup12Percent" json:"tissueGroup12Percent" yaml:"tissueGroup12Percent" cbor:"tissueGroup12Percent"`
	TissueGroup13Percent  uint8  `xml:"tissueGroup13Percent" json:"tissueGroup13Percent" yaml:"tissueGroup13Percent" cbor:"tissueGroup13Percent"`
	TissueGroup14Percent  uint8  `xml:"tissueGroup14Percent" json:"tissueGroup14Percent" yaml:"tissueGroup14Percent" cbor:"tissueGroup14Percent"`
	TissueGroup15Percent  uint8  `xml:"tissueGroup15Percent" json:"tissueGroup15Percent" yaml:"tissueGroup15Percent" cbor:"tissueGroup15Percent"`
	TissueGroup16Percent  uint8  `xml:"tissueGroup16Percent" json:"tissueGroup16Percent" yaml:"tissueGroup16Percent" cbor:"tissueGroup16Percent"`
	EnabledMixSensors     uint8  `xml:"enabledMixSensors" json:"enabledMixSensors" yaml:"enabledMixSensors" cbor:"enabledMixSensors"`
	SetPointMode          uint8  `xml:"setPointMode" json:"setPointMode" yaml:"setPointMode" cbor:"setPointMode"`
	TankPressure          uint8  `xml:"tankPressure" json:"tankPressure" yaml:"tankPressure" cbor:"tankPressure"`
	CompassLog            int16  `xml:"compassLog" json:"compassLog" yaml:"compassLog" cbor:"compassLog"`
	Reserved2             int16  `xml:"reserved2" json:"reserved2" yaml:"reserved2" cbor:"reserved2"`
}

// NewSegment builds the export document for d. d is not modified.
//
// lastSurfaceTimeS only makes sense before the dive started; any other value
// (the device writes 0xFFFFFFFF when unknown) is exported as -1.
func NewSegment(d *ratio.Dive) Segment {
	lastSurface := int64(-1)
	if d.LastSurfaceTimeS < d.UTCStartingTimeS {
		lastSurface = int64(d.LastSurfaceTimeS)
	}

	seg := Segment{
		Version: SegmentVersion,
		Header: SegmentHeader{
			EquipmentType:       EquipmentType,
			ActiveUser:          d.ActiveUser,
			DiveSamples:         d.DiveSamples,
			MonotonicTimeS:      d.MonotonicTimeS,
			UTCStartingTimeS:    d.UTCStartingTimeS,
			SurfacePressureMbar: d.SurfacePressureMbar,
			LastSurfaceTimeS:    lastSurface,
			DesaturationTimeS:   d.DesaturationTimeS,
			DepthMax:            d.DepthMax,
			DecostopDepth1Dm:    d.DecostopDepth1Dm,
			DecostopDepth2Dm:    d.DecostopDepth2Dm,
			DecostopStep1Dm:     d.DecostopStep1Dm,
			DecostopStep2Dm:     d.DecostopStep2Dm,
			DecostopStep3Dm:     d.DecostopStep3Dm,
			DeepStopAlg:         d.DeepStopAlg,
			SafetyStopDepthDm:   d.SafetyStopDepthDm,
			SafetyStopMin:       d.SafetyStopMin,
			DiveMode:            uint8(d.DiveMode),
			Water:               uint8(d.Water),
			AlarmsGeneral:       d.AlarmsGeneral,
			AlarmTime:           d.AlarmTime,
			AlarmDepth:          d.AlarmDepth,
			BacklightLevel:      d.BacklightLevel,
			BacklightMode:       d.BacklightMode,
			SoftwareVersion:     d.SoftwareVersion,
			AlertFlag:           d.AlertFlag,
			FreeUserSettings:    d.FreeUserSettings,
			TimezoneIdx:         d.TimezoneIdx,
			AvgDepth:            d.AvgDepth,
			Dum6:                d.Dum6,
			Dum7:                d.Dum7,
			Dum8:                d.Dum8,
		},
		Samples: make([]Sample, 0, len(d.Samples)),
	}

	for _, s := range d.Samples {
		seg.Samples = append(seg.Samples, newSample(s))
	}
	return seg
}

func newSample(s ratio.DiveSample) Sample {
	t := s.TissueGroupPercent
	return Sample{
		VbatCV:                s.VbatCV,
		RuntimeS:              s.RuntimeS,
		DepthDm:               s.DepthDm,
		TemperatureDc:         s.TemperatureDc,
		ActiveMixO2Percent:    s.ActiveMixO2Percent,
		ActiveMixHePercent:    s.ActiveMixHePercent,
		SuggestedMixO2Percent: s.SuggestedMixO2Percent,
		SuggestedMixHePercent: s.SuggestedMixHePercent,
		ActiveAlgorithm:       s.ActiveAlgorithm,
		BuhlGfHigh:            s.BuhlGfHigh,
		BuhlGfLow:             s.BuhlGfLow,
		VpmR0:                 s.VpmR0,
		ModeOCSCRCCRGauge:     s.ModeOCSCRCCRGauge,
		MaxPPO2OrSetpoint:     s.MaxPPO2OrSetpoint,
		FirstStopDepth:        s.FirstStopDepth,
		FirstStopTime:         s.FirstStopTime,
		NDLOrTTS:              s.NDLOrTTS,
		OTU:                   s.OTU,
		CNS:                   s.CNS,
		TissueGroup1Percent:   t[0],
		TissueGroup2Percent:   t[1],
		TissueGroup3Percent:   t[2],
		TissueGroup4Percent:   t[3],
		TissueGroup5Percent:   t[4],
		TissueGroup6Percent:   t[5],
		TissueGroup7Percent:   t[6],
		TissueGroup8Percent:   t[7],
		TissueGroup9Percent:   t[8],
		TissueGroup10Percent:  t[9],
		TissueGroup11Percent:  t[10],
		TissueGroup12Percent:  t[11],
		TissueGroup13Percent:  t[12],
		TissueGroup14Percent:  t[13],
		TissueGroup15Percent:  t[14],
		TissueGroup16Percent:  t[15],
		EnabledMixSensors:     s.EnabledMixSensors,
		SetPointMode:          s.SetPointMode,
		TankPressure:          s.TankPressure,
		CompassLog:            s.CompassLog,
		Reserved2:             s.Reserved2,
	}
}

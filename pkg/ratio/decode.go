// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ratio

import "fmt"

// DecodeDiveIDRange decodes the GET_DIVE_ID_RANGE payload.
//
// Data format (4 bytes):
//
//	[FIRST(2)][LAST(2)]
func DecodeDiveIDRange(payload []byte) (DiveIDRange, error) {
	r := newFieldReader(payload)
	rng := DiveIDRange{
		First: r.uint16("first"),
		Last:  r.uint16("last"),
	}
	if r.err != nil {
		return DiveIDRange{}, r.err
	}
	return rng, nil
}

// DecodeDiveHeader decodes the GET_DIVE_HEADER payload into a Dive with no
// samples. Fields are read in wire order; bytes after the last field are
// ignored.
func DecodeDiveHeader(payload []byte) (*Dive, error) {
	r := newFieldReader(payload)
	d := &Dive{
		ActiveUser:          r.uint8("activeUser"),
		DiveSamples:         r.uint16("diveSamples"),
		MonotonicTimeS:      r.uint32("monotonicTimeS"),
		UTCStartingTimeS:    r.uint32("UTCStartingTimeS"),
		SurfacePressureMbar: r.uint16("surfacePressureMbar"),
		LastSurfaceTimeS:    r.uint32("lastSurfaceTimeS"),
		DesaturationTimeS:   r.uint32("desaturationTimeS"),
		DepthMax:            r.uint16("depthMax"),
		DecostopDepth1Dm:    r.uint16("decostopDepth1Dm"),
		DecostopDepth2Dm:    r.uint16("decostopDepth2Dm"),
		DecostopStep1Dm:     r.uint8("decostopStep1Dm"),
		DecostopStep2Dm:     r.uint8("decostopStep2Dm"),
		DecostopStep3Dm:     r.uint8("decostopStep3Dm"),
		DeepStopAlg:         r.uint8("deepStopAlg"),
		SafetyStopDepthDm:   r.uint8("safetyStopDepthDm"),
		SafetyStopMin:       r.uint8("safetyStopMin"),
		DiveMode:            DiveMode(r.uint8("diveMode")),
		Water:               WaterType(r.uint8("water")),
		AlarmsGeneral:       r.uint8("alarmsGeneral"),
		AlarmTime:           r.uint16("alarmTime"),
		AlarmDepth:          r.uint16("alarmDepth"),
		BacklightLevel:      r.uint8("backlightLevel"),
		BacklightMode:       r.uint8("backlightMode"),
		SoftwareVersion:     r.uint32("softwareVersion"),
		AlertFlag:           r.uint8("alertFlag"),
		FreeUserSettings:    r.uint8("freeUserSettings"),
		TimezoneIdx:         r.uint8("timezoneIdx"),
		AvgDepth:            r.uint16("avgDepth"),
		Dum6:                r.uint8("dum6"),
		Dum7:                r.uint8("dum7"),
		Dum8:                r.uint8("dum8"),
		Samples:             []DiveSample{},
	}
	if r.err != nil {
		return nil, r.err
	}

	if d.DiveMode != DiveModeOC {
		return nil, &EnumError{Field: "diveMode", Value: uint8(d.DiveMode)}
	}
	if d.Water != WaterSalt && d.Water != WaterFresh {
		return nil, &EnumError{Field: "water", Value: uint8(d.Water)}
	}

	return d, nil
}

// DecodeDiveSample decodes the GET_DIVE_SAMPLE payload. The device may send
// more than one record per response; only the first (the requested sample)
// is decoded.
func DecodeDiveSample(payload []byte) (DiveSample, error) {
	r := newFieldReader(payload)
	s := DiveSample{
		VbatCV:                r.uint16("vbatCV"),
		RuntimeS:              r.uint32("runtimeS"),
		DepthDm:               r.uint16("depthDm"),
		TemperatureDc:         r.uint16("temperatureDc"),
		ActiveMixO2Percent:    r.uint8("activeMixO2Percent"),
		ActiveMixHePercent:    r.uint8("activeMixHePercent"),
		SuggestedMixO2Percent: r.uint8("suggestedMixO2Percent"),
		SuggestedMixHePercent: r.uint8("suggestedMixHePercent"),
		ActiveAlgorithm:       r.uint8("activeAlgorithm"),
		BuhlGfHigh:            r.uint8("buhlGfHigh"),
		BuhlGfLow:             r.uint8("buhlGfLow"),
		VpmR0:                 r.uint8("vpmR0"),
		ModeOCSCRCCRGauge:     r.uint8("modeOCSCRCCRGauge"),
		MaxPPO2OrSetpoint:     r.uint16("maxPPO2OrSetpoint"),
		FirstStopDepth:        r.uint16("firstStopDepth"),
		FirstStopTime:         r.uint16("firstStopTime"),
		NDLOrTTS:              r.uint16("NDLOrTTS"),
		OTU:                   r.uint16("OTU"),
		CNS:                   r.uint16("CNS"),
	}
	for i := range s.TissueGroupPercent {
		s.TissueGroupPercent[i] = r.uint8(fmt.Sprintf("tissueGroup%dPercent", i+1))
	}
	s.EnabledMixSensors = r.uint8("enabledMixSensors")
	s.SetPointMode = r.uint8("setPointMode")
	s.TankPressure = r.uint8("tankPressure")
	s.CompassLog = r.int16("compassLog")
	s.Reserved2 = r.int16("reserved2")

	if r.err != nil {
		return DiveSample{}, r.err
	}
	return s, nil
}

package model

import "errors"

// StorageParams defines the physical parameters of the battery as used by the
// optimisation models.
// Units:
// - CapacityKWh: kWh
// - MaxChargeKW / MaxDischargeKW: kW
// - Efficiencies: 0..1
// - InitialSOC / FinalSOC: fraction of capacity 0..1
type StorageParams struct {
	CapacityKWh         float64
	MaxChargeKW         float64
	MaxDischargeKW      float64
	ChargeEfficiency    float64
	DischargeEfficiency float64
	InitialSOC          float64
	FinalSOC            float64
}

// DefaultSOCRatio is the start/end state of charge used when no storage
// preference is given.
const DefaultSOCRatio = 0.5

// ToParams converts an appliance record to model parameters. SOC targets
// come from the matching storage preference, if any.
func (s Storage) ToParams(pref *StoragePreference) StorageParams {
	p := StorageParams{
		CapacityKWh:         s.StorageCapacityKWh,
		MaxChargeKW:         s.MaxChargingPowerRatio * s.StorageCapacityKWh,
		MaxDischargeKW:      s.MaxDischargingPowerRatio * s.StorageCapacityKWh,
		ChargeEfficiency:    s.ChargingEfficiency,
		DischargeEfficiency: s.DischargingEfficiency,
		InitialSOC:          DefaultSOCRatio,
		FinalSOC:            DefaultSOCRatio,
	}
	if pref != nil {
		p.InitialSOC = pref.InitialSOCRatio
		p.FinalSOC = pref.FinalSOCRatio
	}
	return p
}

// ChargeToEnergyRatio is max charge power per kWh of capacity.
func (p StorageParams) ChargeToEnergyRatio() float64 {
	if p.CapacityKWh <= 0 {
		return 0
	}
	return p.MaxChargeKW / p.CapacityKWh
}

// DischargeToEnergyRatio is max discharge power per kWh of capacity.
func (p StorageParams) DischargeToEnergyRatio() float64 {
	if p.CapacityKWh <= 0 {
		return 0
	}
	return p.MaxDischargeKW / p.CapacityKWh
}

func (p StorageParams) Validate() error {
	if p.CapacityKWh <= 0 {
		return errors.New("storage CapacityKWh must be > 0")
	}
	if p.MaxChargeKW < 0 || p.MaxDischargeKW < 0 {
		return errors.New("storage MaxChargeKW/MaxDischargeKW must be >= 0")
	}
	if p.ChargeEfficiency <= 0 || p.ChargeEfficiency > 1 {
		return errors.New("storage ChargeEfficiency must be in (0, 1]")
	}
	if p.DischargeEfficiency <= 0 || p.DischargeEfficiency > 1 {
		return errors.New("storage DischargeEfficiency must be in (0, 1]")
	}
	if p.InitialSOC < 0 || p.InitialSOC > 1 || p.FinalSOC < 0 || p.FinalSOC > 1 {
		return errors.New("storage InitialSOC/FinalSOC must be in [0, 1]")
	}
	return nil
}

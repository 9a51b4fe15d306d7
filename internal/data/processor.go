package data

import (
	"errors"
	"fmt"

	"demand-flex/internal/model"
)

// ErrPriceOverride marks a price override that does not fit the scenario.
var ErrPriceOverride = errors.New("price override does not match the scenario hours")

// ProcessOptions adjusts how raw records become model inputs.
type ProcessOptions struct {
	// ConsumerID selects the consumer; empty means the first record.
	ConsumerID string
	// ScaleHourEquivalent multiplies the daily energy preferences by the
	// load's max power. When false the values are taken as kWh directly.
	ScaleHourEquivalent bool
	// ApplyRampLimits turns the load ramp ratios into hour-to-hour limits.
	ApplyRampLimits bool
	// PriceOverride replaces the bus energy price series when non-empty. It
	// must have as many hours as the bus series it replaces.
	PriceOverride []float64
}

// Process turns a raw dataset into the hourly/system parameters consumed by
// the optimisation models.
func Process(ds *model.Dataset, opts ProcessOptions) (*model.Inputs, error) {
	if ds == nil {
		return nil, errors.New("dataset is nil")
	}
	consumer, err := selectConsumer(ds.Consumers, opts.ConsumerID)
	if err != nil {
		return nil, err
	}
	bus, err := selectBus(ds.Buses, consumer.ConnectionBus)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(consumer.ListAppliances))
	for _, id := range consumer.ListAppliances {
		owned[id] = true
	}

	prices := bus.EnergyPriceDKKPerKWh
	if len(opts.PriceOverride) > 0 {
		if len(prices) > 0 && len(opts.PriceOverride) != len(prices) {
			return nil, fmt.Errorf("%w: got %d hours, bus %q has %d", ErrPriceOverride, len(opts.PriceOverride), bus.BusID, len(prices))
		}
		prices = opts.PriceOverride
	}
	n := len(prices)
	if n == 0 {
		return nil, fmt.Errorf("bus %q has no energy prices: %w", bus.BusID, ErrNoData)
	}

	in := &model.Inputs{
		Scenario: ds.Scenario,
		Hourly: model.HourlyParams{
			PriceDKKPerKWh: append([]float64(nil), prices...),
		},
		System: model.SystemParams{
			ImportTariffDKKPerKWh: bus.ImportTariffDKKPerKWh,
			ExportTariffDKKPerKWh: bus.ExportTariffDKKPerKWh,
			MaxImportKW:           bus.MaxImportKW,
			MaxExportKW:           bus.MaxExportKW,
		},
	}

	pv, err := availablePV(ds, owned, n)
	if err != nil {
		return nil, err
	}
	in.Hourly.AvailablePVKW = pv

	pref := selectPreference(ds.UsagePreferences, consumer.ConsumerID)

	if load, ok := pick(ds.Appliances.Load, owned, func(l model.Load) string { return l.LoadID }); ok {
		in.System.MaxLoadKW = load.MaxLoadKWhPerHour
		if opts.ApplyRampLimits {
			if load.MaxRampRateUpRatio != nil {
				in.System.LoadRampUpKW = *load.MaxRampRateUpRatio * load.MaxLoadKWhPerHour
			}
			if load.MaxRampRateDownRatio != nil {
				in.System.LoadRampDownKW = *load.MaxRampRateDownRatio * load.MaxLoadKWhPerHour
			}
		}
		if lp := loadPreference(pref, load.LoadID); lp != nil {
			scale := 1.0
			if opts.ScaleHourEquivalent {
				scale = load.MaxLoadKWhPerHour
			}
			if lp.MinTotalEnergyPerDayHourEquivalent != nil {
				in.System.MinDailyEnergyKWh = *lp.MinTotalEnergyPerDayHourEquivalent * scale
			}
			if lp.MaxTotalEnergyPerDayHourEquivalent != nil {
				in.System.MaxDailyEnergyKWh = *lp.MaxTotalEnergyPerDayHourEquivalent * scale
			}
			if len(lp.HourlyProfileRatio) > 0 {
				if len(lp.HourlyProfileRatio) != n {
					return nil, fmt.Errorf("load %q profile has %d hours, prices have %d: %w", load.LoadID, len(lp.HourlyProfileRatio), n, ErrHoursMismatch)
				}
				ref := make([]float64, n)
				for h, r := range lp.HourlyProfileRatio {
					ref[h] = r * load.MaxLoadKWhPerHour
				}
				in.Hourly.ReferenceLoadKW = ref
			}
		}
	}

	if st, ok := pick(ds.Appliances.Storage, owned, func(s model.Storage) string { return s.StorageID }); ok {
		params := st.ToParams(storagePreference(pref, st.StorageID))
		in.System.Storage = &params
	}

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", ds.Scenario, err)
	}
	return in, nil
}

func selectConsumer(consumers []model.Consumer, id string) (model.Consumer, error) {
	if len(consumers) == 0 {
		return model.Consumer{}, fmt.Errorf("no consumers: %w", ErrNoData)
	}
	if id == "" {
		return consumers[0], nil
	}
	for _, c := range consumers {
		if c.ConsumerID == id {
			return c, nil
		}
	}
	return model.Consumer{}, fmt.Errorf("consumer %q not found", id)
}

func selectBus(buses []model.BusParams, busID string) (model.BusParams, error) {
	if len(buses) == 0 {
		return model.BusParams{}, fmt.Errorf("no bus parameters: %w", ErrNoData)
	}
	for _, b := range buses {
		if busID != "" && b.BusID == busID {
			return b, nil
		}
	}
	return buses[0], nil
}

// pick returns the first item owned by the consumer, falling back to the
// first item when the consumer lists none of them.
func pick[T any](items []T, owned map[string]bool, id func(T) string) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	for _, it := range items {
		if owned[id(it)] {
			return it, true
		}
	}
	return items[0], true
}

func availablePV(ds *model.Dataset, owned map[string]bool, n int) ([]float64, error) {
	pv := make([]float64, n)
	der, ok := pick(ds.Appliances.DER, owned, func(d model.DER) string { return d.DERID })
	if !ok || len(ds.DERProduction) == 0 {
		return pv, nil
	}
	profile := ds.DERProduction[0]
	for _, p := range ds.DERProduction {
		if p.DERID != "" && p.DERID == der.DERID {
			profile = p
			break
		}
	}
	if len(profile.HourlyProfileRatio) != n {
		return nil, fmt.Errorf("DER production profile has %d hours, prices have %d: %w", len(profile.HourlyProfileRatio), n, ErrHoursMismatch)
	}
	for h, r := range profile.HourlyProfileRatio {
		pv[h] = r * der.MaxPowerKW
	}
	return pv, nil
}

func selectPreference(prefs []model.UsagePreference, consumerID string) *model.UsagePreference {
	for i := range prefs {
		if prefs[i].ConsumerID == consumerID {
			return &prefs[i]
		}
	}
	if len(prefs) > 0 {
		return &prefs[0]
	}
	return nil
}

func loadPreference(pref *model.UsagePreference, loadID string) *model.LoadPreference {
	if pref == nil || len(pref.LoadPreferences) == 0 {
		return nil
	}
	for i := range pref.LoadPreferences {
		if pref.LoadPreferences[i].LoadID == loadID {
			return &pref.LoadPreferences[i]
		}
	}
	return &pref.LoadPreferences[0]
}

func storagePreference(pref *model.UsagePreference, storageID string) *model.StoragePreference {
	if pref == nil {
		return nil
	}
	for i := range pref.StoragePreferences {
		if pref.StoragePreferences[i].StorageID == storageID {
			return &pref.StoragePreferences[i]
		}
	}
	if len(pref.StoragePreferences) > 0 {
		return &pref.StoragePreferences[0]
	}
	return nil
}

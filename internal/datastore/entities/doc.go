// Package entities defines the GORM entity models for the fishclub database.
//
// # Catalogue
//
//   - Species: fish species with competition scoring rules and encyclopedic data
//   - SpeciesPhoto, SpeciesBaitIdea: per-species gallery and bait suggestions
//   - Supporter: club sponsors shown on the public pages
//
// # Club
//
//   - Member: club member, one per identity (UserID)
//   - Catch: a recorded catch, scored by the ranking engine
//
// # Weather
//
//   - Spot: fishing spot with coordinates
//   - ForecastHour: one normalized forecast hour per (spot, time)
//   - RequestLog: append-only audit of Stormglass calls, used for quota tracking
//
// Decimal columns (lengths, multipliers, coordinates) are float64 with explicit SQL
// precision. Values are interpreted at two decimal places by the ranking engine.
package entities

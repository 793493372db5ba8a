// Package schema defines the tables of the TATP benchmark (subscriber,
// Access_Info, Special_Facility and Call_Forwarding) as skv schemas and as
// typed rows.
//
// The field order of the schemas matters: partial updates address fields by
// index (SubscriberBitsField, SpecialFacilityDataAField).
//
// The New* constructors generate random rows following the benchmark rules,
// the *Key functions build key-only records for reads, ToRecord and the
// *FromRecord functions convert between rows and records.
package schema

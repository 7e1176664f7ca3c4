// Package billing is the tax and billing engine. Every function here is pure:
// it takes lot rows, bag rows and a resolved Settings value and returns new
// values without touching storage or any shared state, so identical inputs
// always produce identical results.
//
// Money and weights use shopspring/decimal. Rates are percentages (2.5 means
// 2.5%), weights are kilograms and lot prices are per quintal (100 kg).
package billing

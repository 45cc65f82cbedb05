// Package validator checks request and payload structs with composable rules.
//
//	func (p DossierPayload) Validate() error {
//		return validator.Apply(
//			validator.RequiredSlice("roster", p.Roster),
//			validator.NoBlankStrings("roster", p.Roster),
//			validator.RequiredString("kit", p.Kit),
//		)
//	}
//
// Apply evaluates every rule, so one call reports all failing fields.
// The returned ValidationErrors can be recovered from wrapped errors with
// ExtractValidationErrors, which the HTTP layer uses to build per-field details.
//
// Rules that only make sense for one payload are written inline as a Rule
// literal with its own Check and ValidationError.
package validator

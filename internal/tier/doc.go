// Package tier recovers the ticket tiers of an event page.
//
// A page can describe its tiers twice: as an embedded pricing object
// assigned to a script-level variable, and as clickable elements whose
// onclick handlers emit a ticket. Neither source carries a key into the
// other. Extract collects both, synthesizes one Record per purchasable
// option from the pricing object, then matches each Record to a clickable
// element by name and, failing that, by price. Pages without a pricing
// object fall back to reading tier blocks straight from the DOM.
//
// Everything here is pure: functions read an already loaded document and
// return fresh values. Missing or malformed input degrades to fewer
// tiers, never to an error.
package tier
